package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// releaseDateFormat renders calendar release dates.
const releaseDateFormat = "2006-01-02"

// Alert describes a tracked title in a transport-friendly format.
type Alert struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName,omitempty"`
	TitleID     string `json:"titleId"`
	TitleName   string `json:"titleName"`
	Kind        string `json:"kind"`
	EpisodeID   string `json:"episodeId,omitempty"`
	ReleaseDate string `json:"releaseDate"`
	Revision    int64  `json:"revision"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// AlertList is a user's alerts plus the rendered chat text.
type AlertList struct {
	Text   string  `json:"text"`
	Alerts []Alert `json:"alerts"`
}

// SearchResult is one search match with the actions the user may take.
type SearchResult struct {
	TitleID  string   `json:"titleId"`
	Title    string   `json:"title"`
	Year     int      `json:"year,omitempty"`
	EndYear  int      `json:"endYear,omitempty"`
	Kind     string   `json:"kind"`
	Overview string   `json:"overview,omitempty"`
	CoverURL string   `json:"coverUrl,omitempty"`
	Actions  []string `json:"actions,omitempty"`
	Note     string   `json:"note,omitempty"`
	URL      string   `json:"url,omitempty"`
}

// MessageReply carries the text produced by an enable or disable call.
type MessageReply struct {
	Text string `json:"text"`
}

// ActionReply is the outcome of a button press.
type ActionReply struct {
	Text         string `json:"text,omitempty"`
	LinkLabel    string `json:"linkLabel,omitempty"`
	LinkURL      string `json:"linkUrl,omitempty"`
	ClearButtons bool   `json:"clearButtons"`
}

// AlertStats counts stored alerts.
type AlertStats struct {
	Total  int `json:"total"`
	Movies int `json:"movies"`
	Series int `json:"series"`
	Due    int `json:"due"`
}

// Cycle summarizes one scheduling cycle.
type Cycle struct {
	ID             string `json:"id"`
	AsOf           string `json:"asOf"`
	StartedAt      string `json:"startedAt,omitempty"`
	FinishedAt     string `json:"finishedAt,omitempty"`
	Due            int    `json:"due"`
	Processed      int    `json:"processed"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	Delivered      int    `json:"delivered"`
	DeliveryFailed int    `json:"deliveryFailed"`
	Error          string `json:"error,omitempty"`
}

// Status aggregates daemon runtime information.
type Status struct {
	Running      bool       `json:"running"`
	CycleRunning bool       `json:"cycleRunning"`
	NextRun      string     `json:"nextRun,omitempty"`
	LastCycle    *Cycle     `json:"lastCycle,omitempty"`
	Alerts       AlertStats `json:"alerts"`
	DatabasePath string     `json:"databasePath"`
	LockFilePath string     `json:"lockFilePath"`
	Deliverer    string     `json:"deliverer"`
}

// EnableRequest is the body of POST /api/alerts.
type EnableRequest struct {
	UserID   string `json:"user_id" validate:"required,max=64"`
	UserName string `json:"user_name" validate:"max=256"`
	TitleID  string `json:"title_id" validate:"required,max=64"`
}

// ActionRequest is the body of POST /api/actions.
type ActionRequest struct {
	Action   string `json:"action" validate:"required,oneof=enable_alert disable_alert dismiss"`
	UserID   string `json:"user_id" validate:"required,max=64"`
	UserName string `json:"user_name" validate:"max=256"`
	TitleID  string `json:"title_id" validate:"required,max=64"`
}

// CycleRequest is the optional body of POST /api/cycle. Date defaults to
// today in the scheduler time zone.
type CycleRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type searchQuery struct {
	Query  string `query:"q" validate:"required,max=200"`
	UserID string `query:"user_id" validate:"max=64"`
}

type userPath struct {
	UserID string `param:"user_id" validate:"required,max=64"`
}

type titlePath struct {
	UserID  string `param:"user_id" validate:"required,max=64"`
	TitleID string `param:"title_id" validate:"required,max=64"`
}
