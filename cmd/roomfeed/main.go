// Command roomfeed renders the live room list in the terminal. With
// -create it first runs the creation flow and then watches the new room
// arrive over the change stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"roomfeed/internal/client"
	"roomfeed/internal/config"
	"roomfeed/internal/createroom"
	"roomfeed/internal/roomlist"
	"roomfeed/internal/rooms"
)

// source adapts the concrete client to the screen's collaborator
// interface.
type source struct {
	c *client.Client
}

func (s source) FetchRooms(ctx context.Context) ([]rooms.Room, error) {
	return s.c.FetchRooms(ctx)
}

func (s source) Subscribe(ctx context.Context) (roomlist.Stream, error) {
	sub, err := s.c.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// printNavigator stands in for a router: room detail is just printed.
type printNavigator struct {
	log logrus.FieldLogger
}

func (n printNavigator) Navigate(path string) {
	n.log.WithField("path", path).Info("navigating")
}

func main() {
	var (
		createName = flag.String("create", "", "create a room with this name before watching")
		createDesc = flag.String("desc", "", "optional description for -create")
	)
	flag.Parse()

	log := logrus.New()
	cfg := config.Load(log)
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.ServerURL, log)

	if *createName != "" {
		flow := createroom.NewFlow(c, printNavigator{log: log}, log)
		flow.Expand()
		if _, err := flow.Submit(ctx, createroom.Input{Name: *createName, Description: *createDesc}); err != nil {
			for field, msg := range flow.FieldErrors() {
				log.WithField("field", field).Error(msg)
			}
			log.WithError(err).Fatal("room creation failed")
		}
	}

	screen := roomlist.NewScreen(source{c: c}, log)
	defer screen.Close()
	if err := screen.Start(ctx); err != nil {
		log.WithError(err).Fatal("room list unavailable")
	}
	render(screen)

	for {
		select {
		case <-ctx.Done():
			return
		case <-screen.Updates():
			if screen.View() == roomlist.ViewError {
				log.WithError(screen.Err()).Error("room list stream lost")
				os.Exit(1)
			}
			render(screen)
		}
	}
}

func render(screen *roomlist.Screen) {
	switch screen.View() {
	case roomlist.ViewEmpty:
		fmt.Println("no rooms yet")
	case roomlist.ViewPopulated:
		fmt.Println("rooms:")
		for _, r := range screen.Rooms() {
			fmt.Printf("  %-20s %d member(s)\n", r.Name, len(r.Members))
		}
	}
}
