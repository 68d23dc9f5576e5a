package service

// emptyIfNil keeps empty listings encoding as [] instead of null.
func emptyIfNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []T{}, nil
	}
	return items, nil
}
