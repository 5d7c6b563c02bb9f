package packslip

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// slipData is everything the packing slip template needs for one kit.
type slipData struct {
	Kit         *Kit
	Branding    Branding
	Rules       ShippingRules
	Company     CompanyInfo
	GeneratedAt time.Time
}

// The slip is self-contained HTML: inline CSS only, no external assets,
// so headless Chrome renders it identically offline. @page margins are
// zero; the content div carries the padding.
var slipTemplate = template.Must(template.New("slip").Funcs(template.FuncMap{
	"odd": func(i int) bool { return i%2 == 1 },
	"formatDate": func(t time.Time) string {
		return t.Format("January 2, 2006")
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Packing Slip</title>
<style>
  * { -webkit-print-color-adjust: exact !important; print-color-adjust: exact !important; }
  @page { margin: 0; size: letter; }
  body { margin: 0; padding: 0; background: white; color: black; font-family: Arial, Helvetica, sans-serif; }
  .content { padding: 2rem; }
  .header { display: flex; align-items: flex-end; justify-content: space-between; border-bottom: 1px solid black; padding-bottom: 8px; margin-bottom: 24px; }
  .header .address { font-size: 13px; }
  .header h1 { font-size: 30px; font-weight: bold; margin: 0; {{if .Branding.Colors}}color: {{.Branding.Colors.Primary}};{{end}} }
  .job { font-size: 13px; color: #374151; margin-bottom: 24px; }
  .ship-to { margin-bottom: 32px; }
  .ship-to h3 { font-size: 15px; font-weight: bold; margin: 0 0 12px; }
  .ship-to p { font-size: 13px; color: #1f2937; margin: 2px 0; }
  .ship-to .name { font-weight: 500; }
  .order h3 { font-size: 15px; font-weight: bold; margin: 0 0 16px; }
  table { width: 100%; border-collapse: collapse; border: 1px solid black; }
  th { border: 1px solid black; padding: 8px 16px; font-size: 13px; font-weight: bold; background: #e5e7eb; }
  th.desc { text-align: left; }
  td { border: 1px solid black; padding: 8px 16px; font-size: 13px; }
  td.qty { text-align: center; font-weight: 500; }
  tr.alt { background: #f9fafb; }
  .totals { margin-top: 16px; font-size: 13px; color: #374151; }
  .instructions { margin-top: 24px; padding: 16px; background: #f9fafb; border: 1px solid #d1d5db; }
  .instructions h4 { font-size: 13px; font-weight: 500; color: #1f2937; margin: 0 0 8px; }
  .instructions p { font-size: 13px; color: #374151; margin: 2px 0; }
  .footer { margin-top: 32px; padding-top: 24px; border-top: 1px solid #9ca3af; display: flex; justify-content: space-between; font-size: 13px; color: {{if .Branding.Colors}}{{.Branding.Colors.Secondary}}{{else}}#4b5563{{end}}; }
</style>
</head>
<body>
<div class="content">
  <div class="header">
    <div class="address">{{.Company.AddressLine}}</div>
    <h1>PACKING LIST</h1>
  </div>

  <div class="job">Job No: {{.Company.JobReference}}</div>

  <div class="ship-to">
    <h3>Ship To:</h3>
    <p class="name">{{.Kit.Recipient.Name}}</p>
    {{if .Kit.Recipient.Company}}<p>{{.Kit.Recipient.Company}}</p>{{end}}
    <p>{{.Kit.Recipient.Address.Street}}</p>
    {{if .Kit.Recipient.Address.Street2}}<p>{{.Kit.Recipient.Address.Street2}}</p>{{end}}
    <p>{{.Kit.Recipient.Address.City}}, {{.Kit.Recipient.Address.State}} {{.Kit.Recipient.Address.ZipCode}}</p>
    <p>{{if .Kit.Recipient.Address.Country}}{{.Kit.Recipient.Address.Country}}{{else}}USA{{end}}</p>
    {{if .Kit.Recipient.Email}}<p>{{.Kit.Recipient.Email}}</p>{{end}}
  </div>

  <div class="order">
    <h3>ORDER DETAILS</h3>
    <table>
      <thead>
        <tr>
          <th class="desc">Description</th>
          <th>Qty Ordered</th>
        </tr>
      </thead>
      <tbody>
        {{range $i, $item := .Kit.Items}}
        <tr{{if odd $i}} class="alt"{{end}}>
          <td>{{$item.Description}}</td>
          <td class="qty">{{$item.Quantity}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    <div class="totals">
      <p><strong>Total Items:</strong> {{len .Kit.Items}}</p>
      <p><strong>Total Quantity:</strong> {{.Kit.TotalQuantity}}</p>
    </div>
  </div>

  {{if .Instructions}}
  <div class="instructions">
    <h4>Special Instructions:</h4>
    {{range .Instructions}}<p>{{.}}</p>
    {{end}}
  </div>
  {{end}}

  <div class="footer">
    <div>
      <p>Generated on: {{formatDate .GeneratedAt}}</p>
      <p>Kit ID: {{.Kit.ID}}</p>
    </div>
    <div>
      {{if .Branding.FooterText}}<p>{{.Branding.FooterText}}</p>{{end}}
      <p>Please verify all items before shipping</p>
    </div>
  </div>
</div>
</body>
</html>
`))

// slipView adapts slipData for the template: the instruction list is
// the union of kit metadata instructions and shipping rule
// instructions, deduplicated in order.
type slipView struct {
	slipData
	Instructions []string
}

// renderSlipHTML produces the self-contained packing slip document for
// one kit. The branding may override the company block for blind-ship
// customers.
func renderSlipHTML(data slipData) (string, error) {
	if data.Branding.OverrideCompany && data.Branding.CompanyName != "" {
		data.Company.JobReference = fmt.Sprintf("%s - %s",
			data.Company.JobReference, data.Branding.CompanyName)
	}

	view := slipView{slipData: data, Instructions: mergeInstructions(
		data.Kit.Meta.SpecialInstructions, data.Rules.Instructions)}

	var b strings.Builder
	if err := slipTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("rendering slip template: %w", err)
	}
	return b.String(), nil
}

func mergeInstructions(lists ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, list := range lists {
		for _, item := range list {
			if item == "" || seen[item] {
				continue
			}
			seen[item] = true
			merged = append(merged, item)
		}
	}
	return merged
}
