// Package contract defines the typed external tool-call records the core
// consumes. These are the shapes wire adapters
// (stdio/JSON-RPC/HTTP/websocket relays) translate into and out of — the
// adapters themselves are out of scope.
package contract

// BashCommandAction is the closed set of BashCommand payload variants.
// Deliberately a tagged interface rather than one struct with optional
// fields — the mutual exclusion between variants is a precondition of the
// API.
type BashCommandAction interface {
	isBashCommandAction()
}

// Command runs a new foreground (or background) command.
type Command struct {
	Command      string
	IsBackground bool
}

// StatusCheck polls a running command without sending new input.
type StatusCheck struct {
	BgCommandID string // empty = foreground shell
}

// SendText sends literal text followed by Enter to a running program.
type SendText struct {
	Text        string
	BgCommandID string
}

// SendSpecials sends named special key sequences.
type SendSpecials struct {
	Keys        []string // Key-up, Key-down, Key-left, Key-right, Enter, Ctrl-c, Ctrl-d, Ctrl-z
	BgCommandID string
}

// SendASCII sends raw ASCII byte codes.
type SendASCII struct {
	Codes       []int
	BgCommandID string
}

func (Command) isBashCommandAction()      {}
func (StatusCheck) isBashCommandAction()  {}
func (SendText) isBashCommandAction()     {}
func (SendSpecials) isBashCommandAction() {}
func (SendASCII) isBashCommandAction()    {}

// BashCommandCall is the BashCommand tool call.
type BashCommandCall struct {
	Action         BashCommandAction
	WaitForSeconds float64
	ThreadID       string
}

// InitType is the Initialize.type discriminant.
type InitType string

const (
	InitFirstCall              InitType = "first_call"
	InitUserAskedModeChange    InitType = "user_asked_mode_change"
	InitResetShell             InitType = "reset_shell"
	InitUserAskedChangeWorkspace InitType = "user_asked_change_workspace"
)

// Mode is the top-level mode tag.
type Mode string

const (
	ModeWCGW       Mode = "wcgw"
	ModeArchitect  Mode = "architect"
	ModeCodeWriter Mode = "code_writer"
)

// CodeWriterConfig restricts commands/edits/writes when Mode is
// ModeCodeWriter.
type CodeWriterConfig struct {
	AllowedCommands []string // nil = "all"; an empty non-nil list allows none
	AllowedGlobsEdit []string
	AllowedGlobsWrite []string
}

// InitializeCall is the Initialize tool call.
type InitializeCall struct {
	Type                InitType
	AnyWorkspacePath    string
	InitialFilesToRead  []string
	TaskIDToResume      string
	ModeName            Mode
	CodeWriterConfig    *CodeWriterConfig
	ThreadID            string
}

// ReadFilesCall is the ReadFiles tool call. Each path may carry
// an optional ":start-end" line-range suffix.
type ReadFilesCall struct {
	FilePaths []string
	ThreadID  string
}

// FileWriteOrEditCall is the FileWriteOrEdit tool call.
type FileWriteOrEditCall struct {
	FilePath               string
	TextOrSearchReplaceBlocks string
	PercentageToChange     float64
	ThreadID               string
}

// ReadImageCall is the ReadImage tool call.
type ReadImageCall struct {
	FilePath string
	ThreadID string
}

// ImagePayload is the typed image result of ReadImage.
type ImagePayload struct {
	MediaType  string // png, jpeg, gif, webp
	Base64Data string
}

// ContextSaveCall is the ContextSave tool call.
type ContextSaveCall struct {
	TaskID          string
	FilePatterns    []string
	Description     string
	ProjectPath     string
	ThreadID        string
}

// ToolCall is the union of all typed tool calls the dispatcher accepts.
type ToolCall interface {
	isToolCall()
}

func (BashCommandCall) isToolCall()      {}
func (InitializeCall) isToolCall()       {}
func (ReadFilesCall) isToolCall()        {}
func (FileWriteOrEditCall) isToolCall()  {}
func (ReadImageCall) isToolCall()        {}
func (ContextSaveCall) isToolCall()      {}
