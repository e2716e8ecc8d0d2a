package ledfx

// Persistence of the favorites list, kept as a YAML list of colors

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"gopkg.in/yaml.v2"

	"github.com/TeamNorCal/ledfx/model"
)

// FavoritesStore loads and saves the favorites list as a whole
type FavoritesStore interface {
	Load() (favs []model.RGB, err errors.Error)
	Save(favs []model.RGB) (err errors.Error)
}

// DefaultFavorites seeds a new favorites file, a rainbow followed by pink and
// white
var DefaultFavorites = []model.RGB{
	{255, 0, 0},
	{255, 127, 0},
	{255, 255, 0},
	{0, 255, 0},
	{0, 255, 255},
	{0, 0, 255},
	{139, 0, 255},
	{255, 0, 255},
	{255, 192, 203},
	{255, 255, 255},
}

// FavoritesFile stores the favorites in a single file
type FavoritesFile struct {
	path string
}

func NewFavoritesFile(path string) (store *FavoritesFile) {
	return &FavoritesFile{path: path}
}

// Load reads the favorites, creating the file with the defaults when it does
// not yet exist
func (store *FavoritesFile) Load() (favs []model.RGB, err errors.Error) {
	body, errGo := ioutil.ReadFile(store.path)
	if errGo != nil {
		if !os.IsNotExist(errGo) {
			return nil, errors.Wrap(errGo).With("file", store.path).With("stack", stack.Trace().TrimRuntime())
		}
		favs = append([]model.RGB{}, DefaultFavorites...)
		if err = store.Save(favs); err != nil {
			return nil, err
		}
		return favs, nil
	}

	favs = []model.RGB{}
	if errGo = yaml.Unmarshal(body, &favs); errGo != nil {
		return nil, errors.Wrap(errGo).With("file", store.path).With("stack", stack.Trace().TrimRuntime())
	}
	return favs, nil
}

// Save replaces the file contents atomically
func (store *FavoritesFile) Save(favs []model.RGB) (err errors.Error) {
	body, errGo := yaml.Marshal(favs)
	if errGo != nil {
		return errors.Wrap(errGo).With("file", store.path).With("stack", stack.Trace().TrimRuntime())
	}

	tmp, errGo := ioutil.TempFile(filepath.Dir(store.path), filepath.Base(store.path)+".*")
	if errGo != nil {
		return errors.Wrap(errGo).With("file", store.path).With("stack", stack.Trace().TrimRuntime())
	}
	defer os.Remove(tmp.Name())

	if _, errGo = tmp.Write(body); errGo != nil {
		tmp.Close()
		return errors.Wrap(errGo).With("file", tmp.Name()).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = tmp.Close(); errGo != nil {
		return errors.Wrap(errGo).With("file", tmp.Name()).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = os.Rename(tmp.Name(), store.path); errGo != nil {
		return errors.Wrap(errGo).With("file", store.path).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}
