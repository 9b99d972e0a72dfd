// Package logging provides structured logging for nautwatch.
//
// # Overview
//
// The package wraps Zap with:
//   - A custom Trace level (-2, below Debug) for per-event detail
//   - JSON or console output on stdout or stderr
//   - Automatic context fields (trace_id, span_id, project.dir, fs.path)
//   - Sampling of sub-error levels so event storms cannot flood the output
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithProjectDir(ctx, "/watch/my-project")
//	logger.Info(ctx, "registered project", zap.Int64("project_id", id))
//
// Output:
//
//	{
//	  "ts": "2025-04-12T10:15:30Z",
//	  "level": "info",
//	  "msg": "registered project",
//	  "service": "nautwatch",
//	  "project.dir": "/watch/my-project",
//	  "project_id": 42
//	}
//
// # Testing
//
// NewTestLogger records every entry through zaptest/observer:
//
//	tl := logging.NewTestLogger()
//	svc := registrar.New(api, tl.Logger)
//	tl.AssertLogged(t, zapcore.InfoLevel, "registered project")
package logging
