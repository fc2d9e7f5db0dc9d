package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/flaglink/flaglink/model"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// OutputFormat specifies the output format for CLI commands.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Evaluation is the printable outcome of one evaluate command: the
// top-level result plus any prerequisite evaluations observed on the way.
type Evaluation struct {
	FlagKey       string
	Result        *model.EvalResult
	Prerequisites []PrerequisiteEvaluation
}

// PrerequisiteEvaluation is one observed prerequisite result.
type PrerequisiteEvaluation struct {
	FlagKey string
	Result  *model.EvalResult
}

// PrintFlags outputs a flag listing in the specified format.
func PrintFlags(flags []*model.FeatureFlag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]*model.FeatureFlag{"flags": flags})
	case FormatYAML:
		return printYAML(map[string][]*model.FeatureFlag{"flags": flags})
	case FormatTable:
		return printFlagTable(flags)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintEvaluation outputs an evaluation in the specified format.
func PrintEvaluation(eval Evaluation, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(evaluationDoc(eval))
	case FormatYAML:
		return printYAML(evaluationDoc(eval))
	case FormatTable:
		return printEvaluationTable(eval)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	// Round-trip through JSON so yaml output honors the JSON field names
	// and custom marshalers.
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(doc)
}

func printFlagTable(flags []*model.FeatureFlag) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Key", "On", "Version", "Variations", "Rules", "Prerequisites")
	for _, f := range flags {
		table.Append(
			f.Key,
			strconv.FormatBool(f.On),
			strconv.Itoa(f.Version),
			strconv.Itoa(len(f.Variations)),
			strconv.Itoa(len(f.Rules)),
			strconv.Itoa(len(f.Prerequisites)),
		)
	}
	return table.Render()
}

func printEvaluationTable(eval Evaluation) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Flag", "Value", "Variation", "Reason")
	for _, p := range eval.Prerequisites {
		table.Append(p.FlagKey, valueString(p.Result.Value()), variationString(p.Result.VariationIndex()), p.Result.Reason().String())
	}
	table.Append(eval.FlagKey, valueString(eval.Result.Value()), variationString(eval.Result.VariationIndex()), eval.Result.Reason().String())
	return table.Render()
}

func valueString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func variationString(index int) string {
	if index == model.NoVariation {
		return "-"
	}
	return strconv.Itoa(index)
}

type evaluationJSON struct {
	FlagKey       string             `json:"flagKey"`
	Result        *model.EvalResult  `json:"result"`
	Prerequisites []prereqResultJSON `json:"prerequisites,omitempty"`
}

type prereqResultJSON struct {
	FlagKey string            `json:"flagKey"`
	Result  *model.EvalResult `json:"result"`
}

func evaluationDoc(eval Evaluation) evaluationJSON {
	doc := evaluationJSON{FlagKey: eval.FlagKey, Result: eval.Result}
	for _, p := range eval.Prerequisites {
		doc.Prerequisites = append(doc.Prerequisites, prereqResultJSON{FlagKey: p.FlagKey, Result: p.Result})
	}
	return doc
}
