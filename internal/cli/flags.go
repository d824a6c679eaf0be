package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config   string `long:"config" description:"Path to config file" default:""`
	JSON     bool   `long:"json" description:"Output in JSON format"`
	Verbose  bool   `long:"verbose" description:"Enable verbose output (debug logs on stderr)"`
	Version  bool   `long:"version" description:"Show version and exit"`
	Server   string `long:"server" description:"History API base URL (overrides config)"`
	PageSize int    `long:"page-size" description:"Entries per page (overrides config)"`
	DBPath   string `long:"db-path" description:"Path to the client state database (overrides config)"`
}

// UploadCommand uploads a history artifact and prints its first page.
type UploadCommand struct {
	Page   int    `long:"page" description:"Page to show after the upload" default:"1"`
	Search string `long:"search" description:"Only show rows containing this text"`

	Args struct {
		File string `positional-arg-name:"FILE" description:"Chrome/Edge History or Firefox places.sqlite"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// PageCommand prints one page of the active file.
type PageCommand struct {
	Search string `long:"search" description:"Only show rows containing this text"`

	Args struct {
		Page int `positional-arg-name:"N" description:"Page number (default 1)"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// ResumeCommand reloads the persisted file id.
type ResumeCommand struct {
	globals *GlobalFlags
	version string
}

// DomainsCommand prints the top domains of a page.
type DomainsCommand struct {
	Page int `long:"page" description:"Page to aggregate" default:"1"`

	globals *GlobalFlags
	version string
}

// DownloadsCommand prints the downloads panel.
type DownloadsCommand struct {
	Search string `long:"search" description:"Only show downloads containing this text"`
	Expand bool   `long:"expand" description:"Show the source pages of every download"`

	globals *GlobalFlags
	version string
}

// SyncCommand prints the sync panel.
type SyncCommand struct {
	globals *GlobalFlags
	version string
}

// ExportCommand asks the server for an export and saves it.
type ExportCommand struct {
	Format    string `long:"format" description:"csv | json | excel (default from config)"`
	DataType  string `long:"type" description:"history | domains | downloads | timeline (default from config)"`
	StartDate string `long:"start-date" description:"Only entries on or after this date (YYYY-MM-DD)"`
	EndDate   string `long:"end-date" description:"Only entries on or before this date (YYYY-MM-DD)"`
	Domain    string `long:"domain" description:"Only entries for this domain"`
	Search    string `long:"search" description:"Only entries containing this text"`
	Out       string `long:"out" description:"Directory to write the export into (default from config)"`
	Legacy    bool   `long:"legacy" description:"Use the direct-download endpoints (history | downloads | sync)"`

	globals *GlobalFlags
	version string
}

// FilesCommand lists recently uploaded files.
type FilesCommand struct {
	Limit int `long:"limit" description:"Maximum files to list" default:"20"`

	globals *GlobalFlags
	version string
}

// UseCommand makes a recent file active.
type UseCommand struct {
	Args struct {
		FileID string `positional-arg-name:"ID" description:"Server file id"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// ForgetCommand clears the active file, or drops one recent file.
type ForgetCommand struct {
	Args struct {
		FileID string `positional-arg-name:"ID" description:"File to drop from recent files (default: clear active file)"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// StatusCommand shows configuration and client state.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// BrowseCommand starts the interactive browser.
type BrowseCommand struct {
	globals *GlobalFlags
	version string
}
