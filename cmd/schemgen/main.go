package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/astei/schemgen/volume"
)

func main() {
	app := &cli.App{
		Name:  "schemgen",
		Usage: "builds block volumes and converts them between schematics and structures",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-extent",
				Usage: "largest width, height or length a volume may grow to",
				Value: volume.DefaultLimits.MaxExtent,
			},
			&cli.Int64Flag{
				Name:  "max-cells",
				Usage: "largest number of cells a volume may hold",
				Value: volume.DefaultLimits.MaxCells,
			},
		},
		Commands: []*cli.Command{
			buildCommand(),
			convertCommand(),
			splitCommand(),
			infoCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func limits(c *cli.Context) volume.Limits {
	return volume.Limits{
		MaxExtent: c.Int("max-extent"),
		MaxCells:  c.Int64("max-cells"),
	}
}
