// Package logger provides leveled logging for keyward.
//
// There is exactly one process-wide sink. Library code fetches it with L()
// at the point of use and never caches it, so SetLogger can swap the sink
// at any moment without affecting correctness of in-flight operations.
// The default sink is Nop: embedding keyward in another program produces no
// output until that program installs its own Sink.
//
// # Verbosity Levels
//
// The CLI installs a Logger controlled by two flags:
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details
//
// # Log Methods
//
//	Logger.Infof()           // Shown with --verbose or --debug
//	Logger.Debugf()          // Shown only with --debug
//	Logger.Warnf()           // Shown with --verbose or --debug
//	Logger.WarnfAlways()     // Always shown
//	Logger.Errorf()          // Shown with --debug
//	Logger.ErrorfAndReturn() // Errorf, then returns the message as an error
//
// # Usage
//
//	logger.SetLogger(logger.Logger{Verbose: verbose, Debug: debug})
//	logger.L().Infof("Generated %d-bit key", bits)
package logger
