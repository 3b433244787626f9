// Package cropcast predicts agricultural crop production (tonnes) from a
// state, district, crop, season, year, and cultivated area, using a trained
// regression model and the label encoders it was trained with.
//
// Quick start:
//
//	c, err := cropcast.New(cropcast.WithArtifactDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	p, _ := c.Predict(ctx, cropcast.Input{
//	    Year: 2022, Area: 150.5,
//	    State: "Kerala", District: "Wayanad", Crop: "Rice", Season: "Kharif",
//	})
//	fmt.Println(p.Display()) // 42.37
//
// A Cropcast is safe for concurrent use. Create once, reuse across requests.
package cropcast
