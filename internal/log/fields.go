package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldAnalysisID = "analysis_id"
	FieldPage       = "page"
	FieldPageSize   = "page_size"
	FieldTotalCount = "total_count"
	FieldTotalPages = "total_pages"
	FieldRowCount   = "row_count"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBank       = "bank"
	FieldCategory   = "category"
	FieldSearch     = "search"
	FieldSheetName  = "sheet_name"
	FieldQueue      = "queue"
	FieldExchange   = "exchange"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentClient = "client"
	ComponentView   = "view"
	ComponentScope  = "scope"
	ComponentCache  = "cache"
	ComponentAMQP   = "amqp"
	ComponentWorker = "worker"
	ComponentExport = "export"
	ComponentConfig = "config"
)

// Operations defines standard operation names
const (
	OpFetchPage     = "fetch_page"
	OpFetchSummary  = "fetch_summary"
	OpFetchOptions  = "fetch_filter_options"
	OpUpload        = "upload"
	OpExport        = "export"
	OpScopeRead     = "scope_read"
	OpScopeWrite    = "scope_write"
)
