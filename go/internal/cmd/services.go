package main

import (
	"database/sql"

	"github.com/mcdev12/tunequiz/go/internal/rooms"
	roomsdb "github.com/mcdev12/tunequiz/go/internal/rooms/db"
	"github.com/mcdev12/tunequiz/go/internal/songs"
	songsdb "github.com/mcdev12/tunequiz/go/internal/songs/db"
)

type Services struct {
	Rooms *rooms.Service
	Songs *songs.Repository
}

func setupServices(database *sql.DB) *Services {
	// Database layer → Repository layer → App layer → Service layer

	// Rooms
	roomQueries := roomsdb.New(database)
	roomsRepo := rooms.NewRepository(roomQueries, database)
	roomsApp := rooms.NewApp(roomsRepo)
	roomsService := rooms.NewService(roomsApp)

	// Songs
	songQueries := songsdb.New(database)
	songsRepo := songs.NewRepository(songQueries, database)

	return &Services{
		Rooms: roomsService,
		Songs: songsRepo,
	}
}
