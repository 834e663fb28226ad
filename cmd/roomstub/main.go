package main

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"roomfeed/internal/config"
	"roomfeed/internal/rooms"
	"roomfeed/internal/stubserver"
)

func main() {
	log := logrus.New()
	cfg := config.Load(log)
	log.SetLevel(cfg.Level())

	srv := stubserver.New(log)
	srv.Seed(rooms.Room{
		ID:   "1",
		Name: "General",
		Members: []rooms.Member{
			{User: rooms.User{ID: "u1", Username: "ada"}},
		},
	})

	log.WithField("addr", cfg.ListenAddr).Info("stub rooms service listening")
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router()); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
