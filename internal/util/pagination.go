package util

// Calculate turns a 1-based page and page size into an offset/limit pair.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return (page - 1) * size, size
}
