package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aegisrules/aegis/securityrules"
)

// View structs pin the CLI's JSON output shape independently of the client
// types, with lowercase keys matching the service's wire casing.

type rulesFileView struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type rulesetView struct {
	Name       string          `json:"name"`
	CreateTime string          `json:"createTime"`
	Source     []rulesFileView `json:"source,omitempty"`
}

type rulesetListView struct {
	Rulesets []rulesetView `json:"rulesets"`
}

func viewOfRuleset(rs *securityrules.Ruleset) rulesetView {
	view := rulesetView{Name: rs.Name, CreateTime: rs.CreateTime}
	for _, f := range rs.Source {
		view.Source = append(view.Source, rulesFileView(f))
	}
	return view
}

func viewOfMetadata(md securityrules.RulesetMetadata) rulesetView {
	return rulesetView{Name: md.Name, CreateTime: md.CreateTime}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
