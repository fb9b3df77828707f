package domain

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// IndexOfCategory returns the position of id in categories, or -1.
func IndexOfCategory(categories []Category, id int64) int {
	for i, c := range categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
