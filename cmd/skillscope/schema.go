package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillscope/pkg/presenter"
	"github.com/jingkaihe/skillscope/pkg/registry"
	"github.com/jingkaihe/skillscope/pkg/report"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [registry|report]",
	Short: "Print the JSON Schema of the bundle export or the report",
	Long: `Print the JSON Schema describing either the registry bundle export
format that skillscope consumes or the structured report it produces, so
downstream tooling can validate both sides of the pipeline.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		schema, err := schemaFor(args[0])
		if err != nil {
			presenter.Error(err, "invalid schema target")
			os.Exit(1)
		}

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			presenter.Error(err, "failed to marshal schema")
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func schemaFor(target string) (*jsonschema.Schema, error) {
	switch target {
	case "registry":
		return generateSchema[registry.Bundle](), nil
	case "report":
		return generateSchema[report.Report](), nil
	default:
		return nil, errors.Errorf("unknown schema target %q, must be registry or report", target)
	}
}

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}
