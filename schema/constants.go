package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string

	// ActivityKind represents the kind of activity a record was built from.
	ActivityKind string

	// LLMProvider represents the text generation provider.
	LLMProvider string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All activity kinds supported.
const (
	MergeKind ActivityKind = "merge"
	PushKind  ActivityKind = "push"
	NoteKind  ActivityKind = "note"
)

// All text generation providers supported.
const (
	OpenAIProvider    LLMProvider = "openai" // default
	AnthropicProvider LLMProvider = "anthropic"
)

// Record titles produced by classification.
const (
	MergeTitlePrefix = "MR Merged"
	PushTitle        = "Commit Pushed"
	NoteTitle        = "Note"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidLLMProviders lists all valid text generation providers.
var ValidLLMProviders = map[LLMProvider]struct{}{
	OpenAIProvider:    {},
	AnthropicProvider: {},
}

// AllActivityKinds returns a list of all supported activity kinds.
var AllActivityKinds = []ActivityKind{MergeKind, PushKind, NoteKind}
