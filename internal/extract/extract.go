package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"nfse/internal"
	"nfse/internal/util"
)

// Context carries the crawl position a record was logged under. It only
// populates report columns; it plays no part in field lookup.
type Context struct {
	Page      int
	Row       int
	Situation internal.Situation
	Set       internal.DocumentSet
}

// FromFile parses one stored XML document and maps it into a TaxRecord.
// Failures are per-document: the caller is expected to skip the record
// and continue.
func FromFile(path string, ctx Context) (internal.TaxRecord, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("ler xml %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("xml %s: documento vazio", path)
	}

	stripNamespaces(root)
	x := &xmlDoc{root: root}

	key := ""
	if inf := root.FindElement(".//infNFSe"); inf != nil {
		key = inf.SelectAttrValue("Id", "")
		key = strings.TrimPrefix(key, keyPrefix)
	}

	emission := x.lookup("emission")
	competence := ""
	if dcp := x.lookup("competence"); dcp != "" {
		if iso, ok := util.CompetenceISO(dcp); ok {
			competence = iso
		} else {
			competence = util.Competence(emission)
		}
	} else {
		competence = util.Competence(emission)
	}

	issValue := x.lookup("issValue")
	issCode := x.lookup("issRetention")
	issDesc, ok := issRetentionDesc[issCode]
	if !ok {
		issDesc = issRetentionDesc["1"]
	}
	// Blank, not zero: the retention sum below must not see a "0,00"
	// here when the document is not retained.
	issRetained := ""
	if issCode == "2" || issCode == "3" {
		issRetained = issValue
	}
	if issCode == "" {
		issCode = "1"
	}

	cst := x.lookup("pisCofinsCST")
	cstDesc := pisCofinsCSTDesc[cst]
	pisValue := x.lookup("pisValue")
	cofinsValue := x.lookup("cofinsValue")
	pcCode := x.lookup("pcRetention")
	pcDesc, ok := pisCofinsRetentionDesc[pcCode]
	if !ok {
		pcDesc = pisCofinsRetentionDesc["2"]
	}
	pisRetained, cofinsRetained := "", ""
	if pcCode == "1" {
		pisRetained = pisValue
		cofinsRetained = cofinsValue
	}
	if pcCode == "" {
		pcCode = "2"
	}

	irrf := x.lookup("irrf")
	csll := x.lookup("csll")

	// INSS and CP are the legacy and current tag names for the same
	// social-security retention; issuers use either, so both are summed.
	inssTotal := util.FloatOrZero(x.lookup("inss")) + util.FloatOrZero(x.lookup("cp"))
	inssRetained := ""
	if inssTotal > 0 {
		inssRetained = strconv.FormatFloat(inssTotal, 'f', -1, 64)
	}

	otherRet := x.lookup("otherRet")

	totalRet := 0.0
	for _, v := range []string{issRetained, pisRetained, cofinsRetained, irrf, csll, inssRetained, otherRet} {
		totalRet += util.FloatOrZero(v)
	}
	totalRetained := "0"
	if totalRet != 0 {
		totalRetained = util.DecimalString(strconv.FormatFloat(totalRet, 'f', -1, 64))
	}

	record := internal.TaxRecord{
		"Página": strconv.Itoa(ctx.Page), "Linha": strconv.Itoa(ctx.Row),
		"Nº NFSe": util.ZeroOrValue(x.lookup("number")), "Chave": util.ZeroOrValue(key),
		"Competência": competence, "Data Emissão": util.ZeroOrValue(emission),
		"CNPJ Prestador": util.ZeroOrValue(x.lookup("providerCNPJ")),
		"Razão Social Prestador": util.ZeroOrValue(x.lookup("providerName")),
		"CNPJ Tomador": util.ZeroOrValue(x.lookup("takerCNPJ")),
		"CPF Tomador":  util.ZeroOrValue(x.lookup("takerCPF")),
		"Razão Social Tomador":       util.ZeroOrValue(x.lookup("takerName")),
		"Código Tributação Nacional": util.ZeroOrValue(x.lookup("serviceCode")),
		"Descrição Serviço":          util.ZeroOrValue(x.lookup("serviceDesc")),
		"Local da Prestação":         util.ZeroOrValue(x.lookup("serviceLocal")),
		"Valor dos Serviços":         util.DecimalString(x.lookup("serviceValue")),
		"Valor Deduções":             util.DecimalString(x.lookup("deductions")),
		"Desconto Incondicionado":    util.DecimalString(x.lookup("discountUncond")),
		"Desconto Condicionado":      util.DecimalString(x.lookup("discountCond")),
		"Base de Cálculo":            util.DecimalString(x.lookup("calcBase")),
		"Alíquota ISS":               util.DecimalString(x.lookup("issRate")),
		"Valor ISS":                  util.DecimalString(issValue),
		"tpRetISSQN":                 issCode,
		"Desc. Ret. ISSQN":           issDesc,
		"ISS Retido":                 util.DecimalString(issRetained),
		"CST PIS/COFINS":             util.ZeroOrValue(cst),
		"Desc. CST PIS/COFINS":       util.ZeroOrValue(cstDesc),
		"Base PIS/COFINS":            util.DecimalString(x.lookup("pisCofinsBase")),
		"Alíq PIS":                   util.DecimalString(x.lookup("pisRate")),
		"Alíq COFINS":                util.DecimalString(x.lookup("cofinsRate")),
		"Valor PIS":                  util.DecimalString(pisValue),
		"Valor COFINS":               util.DecimalString(cofinsValue),
		"tpRetPisCofins":             pcCode,
		"Desc. Ret. PIS/COFINS":      pcDesc,
		"PIS Retido":                 util.DecimalString(pisRetained),
		"COFINS Retido":              util.DecimalString(cofinsRetained),
		"IR Retido":                  util.DecimalString(irrf),
		"CSLL Retido":                util.DecimalString(csll),
		"INSS Retido":                util.DecimalString(inssRetained),
		"Outras Retenções":           util.DecimalString(otherRet),
		"Total Retenções":            totalRetained,
		"Valor Líquido":              util.DecimalString(x.lookup("netValue")),
		"Situação":                   string(ctx.Situation),
		"Tipo":                       string(ctx.Set),
	}

	return record, nil
}

type xmlDoc struct {
	root *etree.Element
}

// lookup resolves a logical field through its ordered alias chain.
func (x *xmlDoc) lookup(field string) string {
	for _, path := range fieldAliases[field] {
		if el := x.root.FindElement(".//" + path); el != nil {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// stripNamespaces drops namespace prefixes from every element and
// attribute so lookup is stable across issuers and document versions.
func stripNamespaces(el *etree.Element) {
	el.Space = ""
	for i := range el.Attr {
		el.Attr[i].Space = ""
	}
	for _, child := range el.ChildElements() {
		stripNamespaces(child)
	}
}
