package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core/classroom"
)

// seedClassrooms creates the default age bands. Re-running is a no-op for
// bands that already exist.
func (cli *commandLine) seedClassrooms() error {
	ctx := context.Background()
	for _, nc := range classroom.DefaultClassrooms() {
		room, err := cli.roomSvc.Create(ctx, nc)
		if err != nil {
			if errors.Cause(err) == classroom.ErrNameExists {
				logger.Printf("classroom %q exists, skipping", nc.Name)
				continue
			}
			return err
		}
		logger.Printf("created classroom %q (ages %d-%d)", room.Name, room.AgeMin, room.AgeMax)
	}
	return nil
}
