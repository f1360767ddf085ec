package fishbowl

import (
	"strings"

	"github.com/danmuck/fishbowl/internal/protocol/codec"
)

func (c *Client) GetAvailableImports() ([]string, error) {
	root, err := c.send(codec.ImportListRequest(c.sess.Key()))
	if err != nil {
		return nil, err
	}
	return texts(root.FindElements("//ImportNames/ImportName")), nil
}

// GetImportHeaders returns the expected CSV header line for an import type.
func (c *Client) GetImportHeaders(importType string) (string, error) {
	root, err := c.send(codec.ImportHeadersRequest(c.sess.Key(), importType))
	if err != nil {
		return "", err
	}
	row := root.FindElement("//Header/Row")
	if row == nil {
		return "", missing("Header/Row")
	}
	return row.Text(), nil
}

// RunImport submits pre-formatted CSV rows, header first by convention.
// See FormatRows.
func (c *Client) RunImport(importType string, rows []string) error {
	root, err := c.sess.Send(codec.ImportRequest(c.sess.Key(), importType, rows))
	if err != nil {
		return err
	}
	rs := root.FindElement("//ImportRs")
	if rs == nil {
		return missing("ImportRs")
	}
	if _, err := codec.CheckStatus(rs, codec.Success, false); err != nil {
		return err
	}
	c.logger.Info().Str("type", importType).Int("rows", len(rows)).Msg("import complete")
	return nil
}

func (c *Client) GetAvailableExports() ([]string, error) {
	root, err := c.send(codec.ExportListRequest(c.sess.Key()))
	if err != nil {
		return nil, err
	}
	return texts(root.FindElements("//Exports/ExportName")), nil
}

// RunExport returns the export's rows as CSV lines. The first is usually,
// but not reliably, the header.
func (c *Client) RunExport(exportType string) ([]string, error) {
	root, err := c.send(codec.ExportRequest(c.sess.Key(), exportType))
	if err != nil {
		return nil, err
	}
	return texts(root.FindElements("//Rows/Row")), nil
}

// FormatRows renders rows for RunImport with every field quoted.
func FormatRows(rows [][]string) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, field := range row {
			fields[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		out = append(out, strings.Join(fields, ","))
	}
	return out
}
