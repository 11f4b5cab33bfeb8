package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ginjaninja78/loadexport/internal/config"
	"github.com/ginjaninja78/loadexport/internal/converter"
	"github.com/ginjaninja78/loadexport/internal/delivery"
	"github.com/ginjaninja78/loadexport/internal/export"
	"github.com/ginjaninja78/loadexport/internal/iifwriter"
	"github.com/ginjaninja78/loadexport/internal/logger"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/qbowriter"
	"github.com/ginjaninja78/loadexport/internal/source"
)

// app is the export pipeline wired from configuration.
type app struct {
	service *export.Service
	closers []func() error
}

// newApp wires sources, converter, writers and, when withDelivery is set,
// the configured Deliverer.
func newApp(ctx context.Context, cfg *config.MainConfig, withDelivery bool) (*app, error) {
	a := &app{}

	rate, err := cfg.Billing.Rate()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Billing.Location()
	if err != nil {
		return nil, err
	}

	n := normalize.New(
		normalize.WithExtraAliases(cfg.FieldAliases),
		normalize.WithLocation(loc),
	)

	local := a.openLocal(ctx, cfg.Source, n)

	resolverOpts := []source.ResolverOption{source.WithRemoteTimeout(cfg.Source.RemoteTimeout)}
	if cfg.Source.RemoteEndpoint != "" {
		resolverOpts = append(resolverOpts, source.WithRemote(
			source.NewRemoteClient(cfg.Source.RemoteEndpoint, cfg.Source.RemoteToken),
			source.NewProbe(cfg.Source.RemoteEndpoint, cfg.Source.Offline),
		))
	}
	resolver := source.NewResolver(local, n, resolverOpts...)

	b := cfg.Billing
	conv := converter.New(n, converter.Options{
		Rate:          rate,
		InvoicePrefix: b.InvoicePrefix,
		InvoiceStart:  b.InvoiceStart,
		DueDays:       b.DueDays,
		Location:      loc,
	})

	opts := []export.Option{
		export.WithIIFSettings(iifwriter.Settings{
			ReceivableAccount: b.ReceivableAccount,
			IncomeAccount:     b.IncomeAccount,
			Terms:             b.Terms,
			ServiceItem:       b.ServiceItem,
			MemoPrefix:        b.MemoPrefix,
		}),
		export.WithQBOSettings(qbowriter.Settings{
			Terms:           b.Terms,
			Item:            b.ServiceItem,
			ComplianceLabel: b.ComplianceLabel,
			Memo:            b.ExportMemo,
		}),
	}

	if withDelivery {
		d, err := delivery.FromConfig(ctx, cfg.Output)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, d.Close)
		opts = append(opts, export.WithDeliverer(d))
	}

	a.service = export.New(resolver, conv, opts...)
	return a, nil
}

// openLocal opens the configured cache. A cache that cannot be opened is
// logged and treated as empty, the same as a failed query.
func (a *app) openLocal(ctx context.Context, cfg config.SourceConfig, n *normalize.Normalizer) source.Local {
	switch cfg.Kind {
	case "postgres":
		pg, err := source.OpenPostgres(ctx, cfg.DatabaseURI, n)
		if err != nil {
			logger.FromContext(ctx).Warn().Err(err).Msg("local cache unavailable")
			return nil
		}
		a.closers = append(a.closers, pg.Close)
		return pg
	case "csv":
		return source.NewCSVSnapshot(cfg.CSVPath, cfg.CSVSettings, n)
	default:
		return nil
	}
}

// Close releases every resource opened by newApp.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %w", errors.Join(errs...))
	}
	return nil
}
