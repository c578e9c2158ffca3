package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kjstillabower/com-weather/internal/models"
	"github.com/kjstillabower/com-weather/internal/observability"
)

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Resolve one collection and print it as JSON",
		ArgsUsage: "feed|weather",
		Description: `Fetches the collection from its configured endpoint, or prints the
bundled collection when the endpoint is unset or the fetch fails.
The "source" field says which one you got.`,
		Flags: append(endpointFlags(),
			&cli.StringFlag{
				Name:  "type",
				Usage: "Only feed items of this media type (video or image)",
			},
		),
		Action: fetch,
	}
}

func fetch(c *cli.Context) error {
	resource := c.Args().First()
	if c.NArg() != 1 || (resource != "feed" && resource != "weather") {
		return cli.Exit("usage: comweather fetch feed|weather", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = observability.FlushTelemetry(logger) }()

	contentService, _ := newContentService(cfg, logger)

	var out interface{}
	switch resource {
	case "feed":
		if t := c.String("type"); t != "" {
			mt := models.MediaType(t)
			if !mt.Valid() {
				return cli.Exit(fmt.Sprintf("unknown media type %q (want video or image)", t), 2)
			}
			out = contentService.FeedByType(c.Context, mt)
		} else {
			out = contentService.Feed(c.Context)
		}
	case "weather":
		out = contentService.Weather(c.Context)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(b))
	return err
}
