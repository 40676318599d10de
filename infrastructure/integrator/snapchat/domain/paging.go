package domain

// Paging é o bloco de paginação das listagens da Ads API
type Paging struct {
	NextLink string `json:"next_link,omitempty"`
}

// Page é uma página já desembrulhada e o cursor da próxima, vazio quando acabou
type Page[T any] struct {
	Items      []T
	NextCursor string
}
