package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mapa_rutas/core-go/internal/console"
	"mapa_rutas/core-go/internal/mapview"
	"mapa_rutas/core-go/internal/routeclient"
)

var (
	routesMapType string
	routesBudget  string
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Compute routes once and print them",
	Args:  cobra.NoArgs,
	RunE:  runRoutes,
}

var budgetCmd = &cobra.Command{
	Use:   "budget <km>",
	Short: "Change the server's distance budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudget,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the server's current route",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var mapCmd = &cobra.Command{
	Use:   "map <riesgo|respuesta|caminos>",
	Short: "List the features of a server map layer",
	Args:  cobra.ExactArgs(1),
	RunE:  runMap,
}

func init() {
	routesCmd.Flags().StringVar(&routesMapType, "map", string(mapview.MapPaths), "map type sent with the request")
	routesCmd.Flags().StringVar(&routesBudget, "km", "", "distance budget for this request (default: configured budget)")
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	t, err := mapview.ParseMapType(routesMapType)
	if err != nil {
		return err
	}
	km := cfg.DefaultKm
	if routesBudget != "" {
		if km, err = mapview.ParseDistanceBudget(routesBudget); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
	defer cancel()

	routes, err := newClient(cfg).ComputeRoutes(ctx, routeclient.ComputeRequest{MapType: string(t), Kilometraje: km})
	if err != nil {
		return fail("compute routes", err)
	}
	console.New(cmd.OutOrStdout()).RenderRoutes(routes)
	return nil
}

func runBudget(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	km, err := mapview.ParseDistanceBudget(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
	defer cancel()

	if err := newClient(cfg).ChangeDistanceBudget(ctx, km); err != nil {
		return fail("change distance budget", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "distance budget set to %g km\n", km)
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
	defer cancel()

	if err := newClient(cfg).ClearRoute(ctx); err != nil {
		return fail("clear route", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "route cleared")
	return nil
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	t, err := mapview.ParseMapType(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout(cfg))
	defer cancel()

	fc, err := newClient(cfg).FetchMap(ctx, string(t))
	if err != nil {
		return fail("fetch map", err)
	}

	out := console.New(cmd.OutOrStdout())
	out.SetActiveMapType(t)
	out.RenderLayer(t, fc)
	return nil
}
