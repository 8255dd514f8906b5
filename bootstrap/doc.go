// Package bootstrap wires a FlowForge process together: logger, node
// registry, runner and telemetry, plus shutdown hooks that flush exporters
// when a task ends.
//
//	cfg, _ := config.Load()
//	app, err := bootstrap.NewApp(cfg)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := app.Runner.Run(ctx, g)
//	    return err
//	})
package bootstrap
