package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"ttscraper/pkg/models"
)

// ASCIILogo is printed by the scrape command unless --quiet is set
const ASCIILogo = `
    ╔═══════════════════════════════════════════════╗
    ║ ████████╗████████╗ ███████╗ ██████╗██████╗    ║
    ║ ╚══██╔══╝╚══██╔══╝ ██╔════╝██╔════╝██╔══██╗   ║
    ║    ██║      ██║    ███████╗██║     ██████╔╝   ║
    ║    ██║      ██║    ╚════██║██║     ██╔══██╗   ║
    ║    ██║      ██║    ███████║╚██████╗██║  ██║   ║
    ║    ╚═╝      ╚═╝    ╚══════╝ ╚═════╝╚═╝  ╚═╝   ║
    ║      PROFILE, COMMENT AND VIDEO HARVESTER     ║
    ╚═══════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// Output is where the Print helpers write; the comments command points it at
// stderr so that stdout carries only records.
var Output io.Writer = os.Stdout

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(Output, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}

// ConsoleNotices prints the per-download notices of the download coordinator.
// It is safe for concurrent use.
type ConsoleNotices struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotices returns notices written to out; a nil out means Output.
func NewConsoleNotices(out io.Writer) *ConsoleNotices {
	return &ConsoleNotices{out: out}
}

func (n *ConsoleNotices) writer() io.Writer {
	if n.out == nil {
		return Output
	}
	return n.out
}

// Downloading announces a transfer before it starts
func (n *ConsoleNotices) Downloading(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.writer(), "%s %s\n", Cyan("Downloading"), path)
}

// AlreadyDownloaded reports a skip because the file is already on disk
func (n *ConsoleNotices) AlreadyDownloaded(filename string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.writer(), "%s %s\n", Dim(filename), Dim("has already been downloaded"))
}

// PrintComment writes a comment as a single human readable line. Replies are indented.
func PrintComment(w io.Writer, c models.CommentRecord) {
	printComment(w, c, Dim, Cyan)
}

// PrintCommentPlain is PrintComment without terminal colors, for files
func PrintCommentPlain(w io.Writer, c models.CommentRecord) {
	printComment(w, c, plain, plain)
}

func plain(text string) string { return text }

func printComment(w io.Writer, c models.CommentRecord, dim, name func(string) string) {
	indent := ""
	if c.IsReply() {
		indent = "    ↳ "
	}
	text := strings.ReplaceAll(c.Text, "\n", " ")
	fmt.Fprintf(w, "%s%s %s %s %s\n",
		indent,
		dim(c.CreateTime.Format("2006-01-02 15:04")),
		name(c.AuthorNickname+":"),
		text,
		dim(fmt.Sprintf("[%d likes, %d replies, %s]", c.LikeCount, c.ReplyCount, c.Language)),
	)
}
