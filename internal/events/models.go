package events

type JobEvent struct {
	JobID      string `json:"job_id"`
	JobType    string `json:"job_type"`
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	Status     string `json:"status"`
}

type RepositoryEvent struct {
	RepositoryID string `json:"repository_id"`
	Status       string `json:"status"`
	FileCount    int    `json:"file_count"`
	TotalSize    int64  `json:"total_size"`
}

type MeetingEvent struct {
	MeetingID   string `json:"meeting_id"`
	Status      string `json:"status"`
	NumSegments int    `json:"num_segments"`
}
