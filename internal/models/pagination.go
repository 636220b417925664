package models

// ListOptions selects one of two mutually exclusive pagination modes: cursor
// mode when Cursor is set, page mode otherwise.
type ListOptions struct {
	Cursor    *int64
	Page      int
	Limit     int
	Status    string
	SortBy    string
	SortOrder string
}

// Pagination describes the position within a task listing. Page-mode fields
// are omitted in cursor mode and vice versa.
type Pagination struct {
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	TotalPages int    `json:"totalPages,omitempty"`
	TotalCount *int64 `json:"totalCount,omitempty"`
	HasMore    bool   `json:"hasMore"`
	NextCursor *int64 `json:"nextCursor,omitempty"`
}

// TaskPage is one listing result.
type TaskPage struct {
	Tasks      []*Task    `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}
