package permissions

// scopePrefix is the common prefix of all Google Workspace OAuth scopes.
const scopePrefix = "https://www.googleapis.com/auth/"

// Gmail scopes
const (
	GmailReadonly      = scopePrefix + "gmail.readonly"
	GmailLabels        = scopePrefix + "gmail.labels"
	GmailModify        = scopePrefix + "gmail.modify"
	GmailCompose       = scopePrefix + "gmail.compose"
	GmailSend          = scopePrefix + "gmail.send"
	GmailSettingsBasic = scopePrefix + "gmail.settings.basic"
)

// Drive scopes
const (
	DriveReadonly = scopePrefix + "drive.readonly"
	DriveFile     = scopePrefix + "drive.file"
	Drive         = scopePrefix + "drive"
)

// Calendar scopes
const (
	CalendarReadonly = scopePrefix + "calendar.readonly"
	CalendarEvents   = scopePrefix + "calendar.events"
	Calendar         = scopePrefix + "calendar"
)

// Docs, Sheets and Slides scopes
const (
	DocsReadonly   = scopePrefix + "documents.readonly"
	DocsWrite      = scopePrefix + "documents"
	SheetsReadonly = scopePrefix + "spreadsheets.readonly"
	SheetsWrite    = scopePrefix + "spreadsheets"
	SlidesReadonly = scopePrefix + "presentations.readonly"
	Slides         = scopePrefix + "presentations"
)

// Chat scopes
const (
	ChatReadonly       = scopePrefix + "chat.messages.readonly"
	ChatWrite          = scopePrefix + "chat.messages"
	ChatSpacesReadonly = scopePrefix + "chat.spaces.readonly"
	ChatSpaces         = scopePrefix + "chat.spaces"
)

// Forms scopes
const (
	FormsBodyReadonly      = scopePrefix + "forms.body.readonly"
	FormsBody              = scopePrefix + "forms.body"
	FormsResponsesReadonly = scopePrefix + "forms.responses.readonly"
)

// Tasks, Contacts and Custom Search scopes
const (
	TasksReadonly    = scopePrefix + "tasks.readonly"
	Tasks            = scopePrefix + "tasks"
	ContactsReadonly = scopePrefix + "contacts.readonly"
	Contacts         = scopePrefix + "contacts"
	CustomSearch     = scopePrefix + "cse"
)

// Apps Script scopes
const (
	ScriptProjectsReadonly    = scopePrefix + "script.projects.readonly"
	ScriptProjects            = scopePrefix + "script.projects"
	ScriptDeploymentsReadonly = scopePrefix + "script.deployments.readonly"
	ScriptDeployments         = scopePrefix + "script.deployments"
	ScriptProcessesReadonly   = scopePrefix + "script.processes"
	ScriptMetrics             = scopePrefix + "script.metrics"
)
