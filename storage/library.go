package storage

import (
	"errors"
	"os"
	"sort"
	"strings"
	"time"
)

// LoadLibrary loads the library from library.json.
// If the file doesn't exist, it returns an empty library.
// If the file is corrupted, it returns an error.
func LoadLibrary() (*Library, error) {
	path, err := GetLibraryPath()
	if err != nil {
		return nil, err
	}

	if _, err := store.Fs().Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultLibrary(), nil
	}

	library := &Library{}
	if err := store.ReadJSON(path, library); err != nil {
		return nil, err
	}
	if library.Games == nil {
		library.Games = make(map[string]*GameEntry)
	}
	if library.Version == 0 {
		library.Version = 1
	}
	return library, nil
}

// SaveLibrary saves the library to library.json atomically.
func SaveLibrary(library *Library) error {
	path, err := GetLibraryPath()
	if err != nil {
		return err
	}
	return store.WriteJSON(path, library)
}

// AddGame adds or updates a game entry. Added is stamped on first insert.
func (lib *Library) AddGame(entry *GameEntry) {
	if lib.Games == nil {
		lib.Games = make(map[string]*GameEntry)
	}
	if prev, ok := lib.Games[entry.ID]; ok && entry.Added == 0 {
		entry.Added = prev.Added
	}
	if entry.Added == 0 {
		entry.Added = time.Now().Unix()
	}
	lib.Games[entry.ID] = entry
}

// GetGame retrieves a game by ID.
func (lib *Library) GetGame(id string) *GameEntry {
	if lib.Games == nil {
		return nil
	}
	return lib.Games[id]
}

// RemoveGame removes a game from the library.
func (lib *Library) RemoveGame(id string) {
	if lib.Games != nil {
		delete(lib.Games, id)
	}
}

// GameCount returns the number of games in the library.
func (lib *Library) GameCount() int {
	return len(lib.Games)
}

// UpdatePlayTime adds seconds of play to a game and marks it played now.
func (lib *Library) UpdatePlayTime(id string, seconds int64) {
	game := lib.GetGame(id)
	if game == nil {
		return
	}
	game.PlayTimeSeconds += seconds
	game.LastPlayed = time.Now().Unix()
}

// GetGamesSorted returns the games ordered by "title", "lastPlayed" or
// "playTime". Unknown keys sort by title.
func (lib *Library) GetGamesSorted(sortBy string, favoritesOnly bool) []*GameEntry {
	games := make([]*GameEntry, 0, len(lib.Games))
	for _, game := range lib.Games {
		if favoritesOnly && !game.Favorite {
			continue
		}
		games = append(games, game)
	}

	switch sortBy {
	case "lastPlayed":
		sort.Slice(games, func(i, j int) bool {
			if games[i].LastPlayed != games[j].LastPlayed {
				return games[i].LastPlayed > games[j].LastPlayed
			}
			return compareGamesForSort(games[i], games[j])
		})
	case "playTime":
		sort.Slice(games, func(i, j int) bool {
			if games[i].PlayTimeSeconds != games[j].PlayTimeSeconds {
				return games[i].PlayTimeSeconds > games[j].PlayTimeSeconds
			}
			return compareGamesForSort(games[i], games[j])
		})
	default:
		sort.Slice(games, func(i, j int) bool {
			return compareGamesForSort(games[i], games[j])
		})
	}
	return games
}

// compareGamesForSort orders by DisplayName (A-Z), then System, then ID.
func compareGamesForSort(a, b *GameEntry) bool {
	aName := strings.ToLower(a.DisplayName)
	bName := strings.ToLower(b.DisplayName)
	if aName != bName {
		return aName < bName
	}
	if a.System != b.System {
		return a.System < b.System
	}
	return a.ID < b.ID
}
