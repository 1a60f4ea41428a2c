package permissions

// Level is one rung of a service's permission ladder. Scopes lists only the
// scopes added at this rung; the effective grant of a level also includes
// every scope of the rungs below it.
type Level struct {
	Name   string
	Scopes []string
}

// Common level names.
const (
	LevelReadonly = "readonly"
	LevelOrganize = "organize"
	LevelDrafts   = "drafts"
	LevelSend     = "send"
	LevelFull     = "full"
)

// Service names with a permission ladder.
const (
	ServiceGmail     = "gmail"
	ServiceDrive     = "drive"
	ServiceCalendar  = "calendar"
	ServiceDocs      = "docs"
	ServiceSheets    = "sheets"
	ServiceChat      = "chat"
	ServiceForms     = "forms"
	ServiceSlides    = "slides"
	ServiceTasks     = "tasks"
	ServiceContacts  = "contacts"
	ServiceSearch    = "search"
	ServiceAppScript = "appscript"
)

// serviceLevels is ordered from least to most permissive for every service.
var serviceLevels = map[string][]Level{
	ServiceGmail: {
		{LevelReadonly, []string{GmailReadonly}},
		{LevelOrganize, []string{GmailLabels, GmailModify}},
		{LevelDrafts, []string{GmailCompose}},
		{LevelSend, []string{GmailSend}},
		{LevelFull, []string{GmailSettingsBasic}},
	},
	ServiceDrive: {
		{LevelReadonly, []string{DriveReadonly}},
		{LevelFull, []string{Drive, DriveFile}},
	},
	ServiceCalendar: {
		{LevelReadonly, []string{CalendarReadonly}},
		{LevelFull, []string{Calendar, CalendarEvents}},
	},
	ServiceDocs: {
		{LevelReadonly, []string{DocsReadonly, DriveReadonly}},
		{LevelFull, []string{DocsWrite, DriveReadonly, DriveFile}},
	},
	ServiceSheets: {
		{LevelReadonly, []string{SheetsReadonly, DriveReadonly}},
		{LevelFull, []string{SheetsWrite, DriveReadonly}},
	},
	ServiceChat: {
		{LevelReadonly, []string{ChatReadonly, ChatSpacesReadonly}},
		{LevelFull, []string{ChatWrite, ChatSpaces}},
	},
	ServiceForms: {
		{LevelReadonly, []string{FormsBodyReadonly, FormsResponsesReadonly}},
		{LevelFull, []string{FormsBody, FormsResponsesReadonly}},
	},
	ServiceSlides: {
		{LevelReadonly, []string{SlidesReadonly}},
		{LevelFull, []string{Slides}},
	},
	ServiceTasks: {
		{LevelReadonly, []string{TasksReadonly}},
		{LevelFull, []string{Tasks}},
	},
	ServiceContacts: {
		{LevelReadonly, []string{ContactsReadonly}},
		{LevelFull, []string{Contacts}},
	},
	ServiceSearch: {
		{LevelReadonly, []string{CustomSearch}},
		{LevelFull, []string{CustomSearch}},
	},
	ServiceAppScript: {
		{LevelReadonly, []string{
			ScriptProjectsReadonly,
			ScriptDeploymentsReadonly,
			ScriptProcessesReadonly,
			ScriptMetrics,
			DriveReadonly,
		}},
		{LevelFull, []string{
			ScriptProjects,
			ScriptDeployments,
			ScriptProcessesReadonly,
			ScriptMetrics,
			DriveFile,
		}},
	},
}

// Ladder returns a copy of the permission ladder for service, lowest first.
// It returns nil for an unknown service.
func Ladder(service string) []Level {
	levels, ok := serviceLevels[service]
	if !ok {
		return nil
	}
	out := make([]Level, len(levels))
	for i, l := range levels {
		out[i] = Level{Name: l.Name, Scopes: append([]string(nil), l.Scopes...)}
	}
	return out
}
