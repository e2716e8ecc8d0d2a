package main

// This file implements a line oriented console used to drive the effects
// from a terminal

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/google/shlex"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledfx"
	"github.com/TeamNorCal/ledfx/model"
)

const consoleHelp = `commands:
  color <groups> <color> [seconds]     fade to a color, rrggbb or r,g,b
  effect <groups> <name> [key=value]   start an effect, e.g. effect all candle speed=0.5
  off <groups>                         stop and fade to black
  alloff                               stop everything and blank immediately
  range <group> <start> <end>          change the active pixels of a group
  favorites [color ...]                show or replace the favorites
  groups                               list the groups
  quit
<groups> is a comma separated list or all`

func runConsole(eng *ledfx.Engine, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "ledfx> ")
		if !scanner.Scan() {
			return
		}
		reply, quit, err := execute(eng, scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err.Error())
		}
		if len(reply) != 0 {
			fmt.Fprintln(out, reply)
		}
		if quit {
			return
		}
	}
}

func usageError(text string) (err errors.Error) {
	return errors.New("usage: " + text).With("stack", stack.Trace().TrimRuntime())
}

func selectGroups(eng *ledfx.Engine, text string) (groups []string) {
	if text == "all" {
		return eng.Registry().Names()
	}
	for _, name := range strings.Split(text, ",") {
		if name = strings.TrimSpace(name); len(name) != 0 {
			groups = append(groups, name)
		}
	}
	return groups
}

// execute runs a single console command
func execute(eng *ledfx.Engine, line string) (reply string, quit bool, err errors.Error) {
	words, errGo := shlex.Split(line)
	if errGo != nil {
		return "", false, errors.Wrap(errGo).With("line", line).With("stack", stack.Trace().TrimRuntime())
	}
	if len(words) == 0 {
		return "", false, nil
	}

	switch cmd, args := strings.ToLower(words[0]), words[1:]; cmd {
	case "help":
		return consoleHelp, false, nil

	case "quit", "exit", "q":
		return "", true, nil

	case "color":
		if len(args) < 2 {
			return "", false, usageError("color <groups> <color> [seconds]")
		}
		color, err := model.ParseColor(args[1])
		if err != nil {
			return "", false, err
		}
		duration := model.DefaultFadeDuration
		if len(args) > 2 {
			secs, errGo := strconv.ParseFloat(args[2], 64)
			if errGo != nil {
				return "", false, errors.Wrap(errGo).With("duration", args[2]).With("stack", stack.Trace().TrimRuntime())
			}
			duration = time.Duration(secs * float64(time.Second))
		}
		return "", false, eng.SetColor(selectGroups(eng, args[0]), color, duration)

	case "effect":
		if len(args) < 2 {
			return "", false, usageError("effect <groups> <name> [key=value ...]")
		}
		params := model.Args{}
		for _, kv := range args[2:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return "", false, usageError("effect parameters are key=value")
			}
			params[strings.ToLower(parts[0])] = parts[1]
		}
		return "", false, eng.StartEffectByName(selectGroups(eng, args[0]), args[1], params)

	case "off":
		if len(args) != 1 {
			return "", false, usageError("off <groups>")
		}
		return "", false, eng.Stop(selectGroups(eng, args[0]))

	case "alloff":
		eng.StopAll()
		return "all lights turned off", false, nil

	case "range":
		if len(args) != 3 {
			return "", false, usageError("range <group> <start> <end>")
		}
		start, errGo := strconv.Atoi(args[1])
		if errGo != nil {
			return "", false, usageError("range <group> <start> <end>")
		}
		end, errGo := strconv.Atoi(args[2])
		if errGo != nil {
			return "", false, usageError("range <group> <start> <end>")
		}
		if err = eng.Reconfigure(args[0], start, end); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%s now %d-%d", args[0], start, end), false, nil

	case "favorites":
		if len(args) != 0 {
			favs := make([]model.RGB, 0, len(args))
			for _, arg := range args {
				c, err := model.ParseColor(arg)
				if err != nil {
					return "", false, err
				}
				favs = append(favs, c)
			}
			if err = eng.SetFavorites(favs); err != nil {
				return "", false, err
			}
		}
		names := []string{}
		for _, c := range eng.Favorites() {
			names = append(names, c.String())
		}
		return strings.Join(names, " "), false, nil

	case "groups":
		lines := []string{}
		for _, info := range eng.Groups() {
			lines = append(lines, fmt.Sprintf("%-16s %4d-%-4d %s", info.Name, info.Start, info.End, info.Active))
		}
		return strings.Join(lines, "\n"), false, nil

	default:
		return "", false, usageError("unknown command " + cmd + ", try help")
	}
}
