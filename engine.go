package ledfx

// The engine is the surface used by the outer control layer.  It ties the
// group registry, frame store and scheduler to the effect library and the
// favorites list

import (
	"strings"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/ledfx/model"
)

// FrameRate is the step rate of timed fades
const FrameRate = 60

type Engine struct {
	reg   *Registry
	store *FrameStore
	sched *Scheduler
	sink  Sink

	favStore  FavoritesStore
	favorites []model.RGB
	favLock   sync.RWMutex

	logger logxi.Logger
}

// NewEngine assembles an engine.  favStore may be nil in which case the
// favorites only live in memory, errorC may be nil in which case failures are
// only logged.  Closing quitC stops every running effect.
func NewEngine(reg *Registry, sink Sink, favStore FavoritesStore, logger logxi.Logger,
	errorC chan<- errors.Error, quitC <-chan struct{}) (eng *Engine, err errors.Error) {

	if logger == nil {
		logger = logxi.New("ledfx")
	}

	eng = &Engine{
		reg:       reg,
		store:     NewFrameStore(reg),
		sched:     NewScheduler(reg, sink, logger, errorC, quitC),
		sink:      sink,
		favStore:  favStore,
		favorites: []model.RGB{},
		logger:    logger,
	}

	if favStore != nil {
		favs, err := favStore.Load()
		if err != nil {
			return nil, err
		}
		eng.favorites = favs
	}
	return eng, nil
}

func (eng *Engine) Registry() *Registry {
	return eng.reg
}

func (eng *Engine) Store() *FrameStore {
	return eng.store
}

func (eng *Engine) Scheduler() *Scheduler {
	return eng.sched
}

// unknownGroups gathers the names that are not registered into a single error
func unknownGroups(names []string) (err errors.Error) {
	if len(names) == 0 {
		return nil
	}
	return errors.Wrap(model.ErrUnknownGroup).With("groups", strings.Join(names, ",")).With("stack", stack.Trace().TrimRuntime())
}

// SetColor fades each group from its current base color to color
func (eng *Engine) SetColor(groups []string, color model.RGB, duration time.Duration) (err errors.Error) {
	return eng.StartEffect(groups, model.FadeParams{Color: color, Duration: duration})
}

// StartEffect supersedes whatever runs on each group with the effect
// described by params.  Known groups are all started even when some of the
// names are unknown, the unknown ones are then reported.
func (eng *Engine) StartEffect(groups []string, params model.Params) (err errors.Error) {
	missing := []string{}

	// Without favorites the favorite effects have nothing to show, the groups
	// are left exactly as they are rather than being superseded
	switch params.Kind() {
	case model.FavoriteCycle, model.FavoriteJump:
		if len(eng.Favorites()) == 0 {
			for _, group := range groups {
				if _, err := eng.reg.lookup(group); err != nil {
					missing = append(missing, group)
				}
			}
			eng.logger.Info("no favorites, effect ignored", "effect", params.Kind().String())
			return unknownGroups(missing)
		}
	}

	for _, group := range groups {
		fn := eng.task(params)
		if fn == nil {
			eng.logger.Warn("effect ignored", "group", group, "effect", params)
			continue
		}
		if _, err := eng.sched.Start(group, params.Kind(), fn); err != nil {
			missing = append(missing, group)
		}
	}
	return unknownGroups(missing)
}

// StartEffectByName parses loosely typed arguments into the named effect and
// starts it.  An unknown effect name is a no-op.
func (eng *Engine) StartEffectByName(groups []string, name string, args model.Args) (err errors.Error) {
	params, err := model.ParseParams(name, args)
	if err != nil {
		if _, isKnown := model.KindFromName(name); !isKnown {
			eng.logger.Info("unknown effect ignored", "effect", name)
			return nil
		}
		return err
	}
	return eng.StartEffect(groups, params)
}

// Stop halts the running effect on each group and fades it to black
func (eng *Engine) Stop(groups []string) (err errors.Error) {
	missing := []string{}
	for _, group := range groups {
		if err := eng.sched.Stop(group); err != nil {
			missing = append(missing, group)
			continue
		}
		params := model.FadeParams{Color: model.Black, Duration: model.DefaultFadeDuration}
		if _, err := eng.sched.Start(group, params.Kind(), eng.task(params)); err != nil {
			missing = append(missing, group)
		}
	}
	return unknownGroups(missing)
}

// StopAll stops every group and blanks it immediately.  Each group is
// handled under its own lock so unrelated groups are never held up.
func (eng *Engine) StopAll() {
	for _, group := range eng.reg.Names() {
		if err := eng.sched.Blackout(group); err != nil {
			eng.sched.report(err)
		}
	}
	eng.logger.Info("all groups turned off")
}

// Reconfigure replaces the pixel range of a group
func (eng *Engine) Reconfigure(group string, start int, end int) (err errors.Error) {
	var placed func()
	if placer, isOK := eng.sink.(Placement); isOK {
		placed = func() { placer.Place(group, start) }
	}
	if err = eng.reg.reconfigure(group, start, end, placed); err != nil {
		return err
	}
	eng.logger.Info("group range updated", "group", group, "start", start, "end", end)
	return nil
}

func (eng *Engine) Groups() []model.GroupInfo {
	return eng.reg.Groups()
}

// Favorites returns a copy of the favorites list
func (eng *Engine) Favorites() (favs []model.RGB) {
	eng.favLock.RLock()
	defer eng.favLock.RUnlock()
	return append([]model.RGB{}, eng.favorites...)
}

// SetFavorites replaces the favorites list as a whole and persists it.
// Running favorite effects pick up the new list on their next step.
func (eng *Engine) SetFavorites(favs []model.RGB) (err errors.Error) {
	favs = append([]model.RGB{}, favs...)
	if eng.favStore != nil {
		if err = eng.favStore.Save(favs); err != nil {
			return err
		}
	}
	eng.favLock.Lock()
	eng.favorites = favs
	eng.favLock.Unlock()
	return nil
}

// Run re-emits every group at the refresh interval until quitC is closed, so
// receivers that time out or restart are kept current even when no effect
// is running
func (eng *Engine) Run(refresh time.Duration, quitC <-chan struct{}) {
	tick := time.NewTicker(refresh)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			for _, group := range eng.reg.Names() {
				if err := eng.sched.Refresh(group); err != nil {
					eng.sched.report(err)
				}
			}
		case <-quitC:
			return
		}
	}
}
