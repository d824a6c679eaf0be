package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Upload    *UploadCommand
	Page      *PageCommand
	Resume    *ResumeCommand
	Domains   *DomainsCommand
	Downloads *DownloadsCommand
	Sync      *SyncCommand
	Export    *ExportCommand
	Files     *FilesCommand
	Use       *UseCommand
	Forget    *ForgetCommand
	Status    *StatusCommand
	Browse    *BrowseCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "histview"
	parser.LongDescription = "Upload browser history to a history analysis server and browse, search and export it."

	cmds := &commands{
		Upload:    &UploadCommand{globals: &globals, version: version},
		Page:      &PageCommand{globals: &globals, version: version},
		Resume:    &ResumeCommand{globals: &globals, version: version},
		Domains:   &DomainsCommand{globals: &globals, version: version},
		Downloads: &DownloadsCommand{globals: &globals, version: version},
		Sync:      &SyncCommand{globals: &globals, version: version},
		Export:    &ExportCommand{globals: &globals, version: version},
		Files:     &FilesCommand{globals: &globals, version: version},
		Use:       &UseCommand{globals: &globals, version: version},
		Forget:    &ForgetCommand{globals: &globals, version: version},
		Status:    &StatusCommand{globals: &globals, version: version},
		Browse:    &BrowseCommand{globals: &globals, version: version},
	}

	parser.AddCommand("upload", "Upload a history file", "Upload a Chrome/Edge History or Firefox places.sqlite file, make it the active file and print its first page.", cmds.Upload)
	parser.AddCommand("page", "Show a page of the active file", "Load page N (default 1) of the active file.", cmds.Page)
	parser.AddCommand("resume", "Reload the persisted file", "Reload page 1 of the file that was active in the last session.", cmds.Resume)
	parser.AddCommand("domains", "Show top domains", "Show the 20 most visited domains of a page of the active file.", cmds.Domains)
	parser.AddCommand("downloads", "Show downloads", "Show downloads of the active file with their likely source pages.", cmds.Downloads)
	parser.AddCommand("sync", "Show sync information", "Show browser account, sync settings and synced visits of the active file.", cmds.Sync)
	parser.AddCommand("export", "Export the active file", "Export history, domains, downloads or timeline of the active file.", cmds.Export)
	parser.AddCommand("files", "List recent files", "List recently uploaded files, most recently opened first.", cmds.Files)
	parser.AddCommand("use", "Make a recent file active", "Make a previously uploaded file active and load its first page.", cmds.Use)
	parser.AddCommand("forget", "Clear the active file", "Clear the active file, or drop one file from the recent files list.", cmds.Forget)
	parser.AddCommand("status", "Show client status", "Show server URL, active file, state database and recent files count.", cmds.Status)
	parser.AddCommand("browse", "Open the interactive browser", "Open the interactive terminal history browser.", cmds.Browse)

	return parser, &globals, cmds
}

// Run is the main entry point for the histview CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("histview %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
