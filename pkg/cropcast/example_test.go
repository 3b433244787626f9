package cropcast_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/crimson-sun/cropcast/internal/fixture"
	"github.com/crimson-sun/cropcast/pkg/cropcast"
)

func Example() {
	dir, err := os.MkdirTemp("", "cropcast-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if _, err := fixture.WriteArtifacts(dir); err != nil {
		log.Fatal(err)
	}

	c, err := cropcast.New(cropcast.WithArtifactDir(dir))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	p, err := c.Predict(context.Background(), cropcast.Input{
		Year: 2022, Area: 150.5,
		State: "Kerala", District: "Wayanad", Crop: "Rice", Season: "Kharif",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Estimated Crop Production: %s tonnes\n", p.Display())
	// Output:
	// Estimated Crop Production: 308.95 tonnes
}
