package domain

// Models 供 AutoMigrate 使用
func Models() []any {
	return []any{
		&User{}, &Genre{}, &Content{}, &ContentGenre{},
		&Review{}, &ReviewLike{}, &Bookmark{}, &WatchHistory{},
	}
}
