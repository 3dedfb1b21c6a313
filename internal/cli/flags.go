package cli

// Options holds every command-line flag. btr has no subcommands: one
// invocation analyses (or dumps) one browser for one user.
type Options struct {
	Browser string `short:"b" long:"browser" description:"Browser to examine: chrome, firefox or edge" value-name:"BROWSER"`
	Dump    string `short:"d" long:"dump" description:"Dump a store, or both with all, and skip correlation" choice:"history" choice:"cookies" choice:"all"`
	Output  string `short:"o" long:"output" description:"Write results to FILE instead of standard output" value-name:"FILE"`
	User    string `short:"u" long:"user" description:"User whose browser data to analyse (default: current user)"`
	Config  string `short:"c" long:"config" description:"Path to config file (default: ~/.config/btr/config.yaml if present)" value-name:"FILE"`
	Start   string `short:"s" long:"start" description:"Start of the analysis range: Unix seconds, or hex FILETIME when --os is windows"`
	End     string `short:"e" long:"end" description:"End of the analysis range (default: now), same encoding as --start"`
	Window  uint64 `short:"w" long:"window" description:"Corroboration window in microseconds" default:"5000000"`

	OS      string `long:"os" description:"Filesystem layout of the target: linux, windows or darwin (default: host)"`
	Root    string `long:"root" description:"Mount point of the target filesystem (default: /)" value-name:"DIR"`
	History string `long:"history" description:"History store path, overriding config and defaults" value-name:"FILE"`
	Cookies string `long:"cookies" description:"Cookie store path, overriding config and defaults" value-name:"FILE"`

	Format     string `short:"f" long:"format" description:"Output format" choice:"csv" choice:"table" choice:"json" default:"csv"`
	RawTimes   bool   `long:"raw-times" description:"Print timestamps as integer microseconds since the Unix epoch"`
	ShowPaths  bool   `long:"show-paths" description:"Print the resolved store paths and exit"`
	InitConfig string `long:"init-config" description:"Write a config template to FILE and exit" value-name:"FILE"`
	LogLevel   string `long:"log-level" description:"Diagnostic log level: debug, info, warn or error (default: info)"`
	Version    bool   `long:"version" description:"Show version and exit"`
}
