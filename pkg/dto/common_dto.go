package dto

type PaginationQuery struct {
	Limit           int  `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset          int  `form:"offset" binding:"omitempty,min=0"`
	IncludeArchived bool `form:"includeArchived"`
}

type PaginationMeta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}
