// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/shipcheck/internal/container"
	"github.com/pdiddy/shipcheck/internal/convert"
	"github.com/pdiddy/shipcheck/internal/learn"
	"github.com/pdiddy/shipcheck/internal/metrics"
	"github.com/pdiddy/shipcheck/internal/patterns"
	"github.com/pdiddy/shipcheck/internal/preview"
	"github.com/pdiddy/shipcheck/internal/rules"
	"github.com/pdiddy/shipcheck/pkg/types"
)

// app holds the collaborators shared by the commands.
type app struct {
	rules   *rules.Loader
	store   *patterns.Store
	session *preview.Session
	orch    *preview.Orchestrator
	learner *learn.Learner
	metrics *metrics.Metrics
	conv    convert.Converter
}

// newApp opens the pattern store and wires the engine. The PDF converter
// is only built when withConverter is set, so commands that never read
// PDFs do not need pdftotext or a container runtime.
func newApp(ctx context.Context, withConverter bool) (*app, error) {
	store, err := patterns.Open(cfg.Patterns)
	if err != nil {
		return nil, err
	}

	token, _ := loadedSecrets.Lookup(cfg.Rules.TokenSecret)
	a := &app{
		rules:   rules.NewLoader(cfg.Rules, cfg.HTTP, token),
		store:   store,
		session: preview.NewSession(cfg.Session.MaxDocuments),
		metrics: metrics.New(),
	}
	a.orch = preview.New(a.rules, store, a.session, a.metrics)
	a.learner = learn.New(a.session, store, a.metrics)

	if withConverter {
		conv, err := newConverter(ctx, cfg.Conversion)
		if err != nil {
			store.Close()
			return nil, err
		}
		a.conv = conv
	}
	return a, nil
}

func newConverter(ctx context.Context, cc types.ConversionConfig) (convert.Converter, error) {
	var rt container.Runtime
	if cc.Backend == types.BackendContainer {
		r, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "container conversion backend")
		}
		zap.L().Debug("container runtime detected", zap.String("runtime", r.Name()))
		rt = r
	}
	return convert.New(ctx, cc, rt)
}

func (a *app) Close() error {
	return a.store.Close()
}
