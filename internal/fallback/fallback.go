// Package fallback holds the bundled content served when live data is
// unavailable. The collections are constant for the life of the process.
package fallback

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/com-weather/internal/models"
)

//go:embed fallback.yaml
var raw []byte

type document struct {
	Feed    []models.FeedItem      `yaml:"feed"`
	Weather []models.WeatherRecord `yaml:"weather"`
}

var load = sync.OnceValue(func() document {
	doc, err := parse(raw)
	if err != nil {
		panic(err)
	}
	return doc
})

func parse(b []byte) (document, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return document{}, fmt.Errorf("parse fallback content: %w", err)
	}
	for i, item := range doc.Feed {
		if !item.Type.Valid() {
			return document{}, fmt.Errorf("fallback feed item %d: unknown media type %q", i, item.Type)
		}
	}
	return doc, nil
}

// Feed returns a copy of the bundled newsletter items.
func Feed() []models.FeedItem {
	return slices.Clone(load().Feed)
}

// Weather returns a copy of the bundled weather records.
func Weather() []models.WeatherRecord {
	return slices.Clone(load().Weather)
}
