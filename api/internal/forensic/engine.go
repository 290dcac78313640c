package forensic

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Engine: внешний классификатор. Один вызов Analyze = ровно один запрос,
// без ретраев и стриминга. Любой сбой возвращается обёрнутым в ErrScanAborted.
type Engine interface {
	Name() string
	GetModel() string
	Analyze(ctx context.Context, req Request) (Result, error)
}

// Engines: реестр движков по имени (gemini | gemini-sdk) и движок по умолчанию.
type Engines struct {
	def  string
	byID map[string]Engine
}

func NewEngines(def string, engines ...Engine) *Engines {
	e := &Engines{def: strings.ToLower(strings.TrimSpace(def)), byID: map[string]Engine{}}
	for _, eng := range engines {
		if eng != nil {
			e.byID[strings.ToLower(eng.Name())] = eng
		}
	}
	return e
}

func (e *Engines) Default() (Engine, error) { return e.GetEngine("") }

func (e *Engines) GetEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = e.def
	}
	if eng, ok := e.byID[name]; ok {
		return eng, nil
	}
	return nil, fmt.Errorf("unknown engine %q; use one of: %s", name, strings.Join(e.Names(), ", "))
}

func (e *Engines) Names() []string {
	out := make([]string, 0, len(e.byID))
	for k := range e.byID {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
