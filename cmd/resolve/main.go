// Command resolve looks up the Tcorr coefficient for a single Landsat scene
// against local coefficient tables, reporting which fallback tier supplied
// the value. It can also print the scene's ETf evaluation graph.
//
// Usage:
//
//	go run ./cmd/resolve -scene LC08_044033_20170716 \
//	  -scene-table data/tcorr_scene.json \
//	  -climatology data/tcorr_month.json \
//	  -graph
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/etstream/ssebop-tcorr-etl/internal/domain"
	"github.com/etstream/ssebop-tcorr-etl/internal/expr"
	"github.com/etstream/ssebop-tcorr-etl/internal/model"
	"github.com/etstream/ssebop-tcorr-etl/internal/tcorr"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	sceneID := flag.String("scene", "", "Landsat scene ID (e.g. LC08_044033_20170716)")
	sceneTablePath := flag.String("scene-table", "", "path to scene coefficient table JSON")
	climatologyPath := flag.String("climatology", "", "path to monthly climatology table JSON")
	defaultTcorr := flag.Float64("default", tcorr.DefaultTcorr, "terminal fallback coefficient")
	fixedTcorr := flag.Float64("fixed", 0, "fixed coefficient override (0 disables)")
	collection := flag.String("collection", "landsat/c02/t1_toa", "image collection the scene belongs to")
	printGraph := flag.Bool("graph", false, "print the ETf evaluation graph")
	flag.Parse()

	if *sceneID == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -scene")
	}

	scene, err := domain.ParseSceneID(*sceneID)
	if err != nil {
		return err
	}

	var scenes tcorr.MapSceneTable
	if *sceneTablePath != "" {
		if scenes, err = tcorr.LoadSceneTable(*sceneTablePath); err != nil {
			return err
		}
	}
	var climatology tcorr.MapClimatologyTable
	if *climatologyPath != "" {
		if climatology, err = tcorr.LoadClimatologyTable(*climatologyPath); err != nil {
			return err
		}
	}

	opts := []tcorr.Option{tcorr.WithDefault(*defaultTcorr)}
	if *fixedTcorr != 0 {
		opts = append(opts, tcorr.WithFixed(*fixedTcorr))
	}
	resolver := tcorr.NewResolver(scenes, climatology, opts...)

	coeff := resolver.Resolve(scene.ID, scene.WRS2Tile(), scene.Month())

	fmt.Printf("scene:       %s\n", scene.ID)
	fmt.Printf("wrs2 tile:   %s\n", scene.WRS2Tile())
	fmt.Printf("month:       %d\n", scene.Month())
	fmt.Printf("tcorr:       %g\n", coeff.Value)
	fmt.Printf("source:      %s (index %d)\n", coeff.Source, int(coeff.Source))

	if !*printGraph {
		return nil
	}

	prepped, err := model.PrepTOA(expr.Asset(*collection+"/"+scene.ID), scene.SpacecraftID())
	if err != nil {
		return err
	}
	etf, err := model.New(prepped, scene, model.DefaultParams()).ETf(coeff)
	if err != nil {
		return err
	}
	graph, err := etf.Graph()
	if err != nil {
		return err
	}
	fmt.Printf("\n%s\n", graph)
	return nil
}
