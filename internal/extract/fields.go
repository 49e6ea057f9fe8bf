package extract

// Logical field → ordered candidate tag paths, most specific first. The
// first candidate with non-blank text wins. The alias lists absorb the
// schema drift between older NFSe layouts and the national DPS layout
// without branching on a version flag.
var fieldAliases = map[string][]string{
	"number":         {"nNFSe", "Numero", "nDFSe"},
	"emission":       {"infDPS/dhEmi", "dhEmi", "DataEmissao", "dhProc"},
	"competence":     {"infDPS/dCompet", "dCompet"},
	"providerCNPJ":   {"prest/CNPJ", "emit/CNPJ"},
	"providerName":   {"prest/xNome", "emit/xNome"},
	"takerCNPJ":      {"toma/CNPJ", "tomador/CNPJ"},
	"takerCPF":       {"toma/CPF", "tomador/CPF"},
	"takerName":      {"toma/xNome", "tomador/xNome"},
	"serviceCode":    {"cServ/cTribNac", "cTribNac"},
	"serviceDesc":    {"cServ/xDescServ", "xDescServ", "Discriminacao"},
	"serviceLocal":   {"xLocPrestacao", "xLocIncid", "cLocPrestacao"},
	"serviceValue":   {"vServPrest/vServ", "vServ"},
	"deductions":     {"vDedRed", "vDeducao"},
	"discountUncond": {"vDescIncond"},
	"discountCond":   {"vDescCond"},
	"calcBase":       {"valores/vBC", "vBC"},
	"issRate":        {"valores/pAliqAplic", "pAliqAplic", "BM/pAliq", "tribMun/pAliq"},
	"issValue":       {"valores/vISSQN", "vISSQN", "BM/vISS", "vISS"},
	"issRetention":   {"tpRetISSQN", "BM/tpRetISSQN", "tribMun/tpRetISSQN"},
	"pisCofinsCST":   {"piscofins/CST", "CST"},
	"pisCofinsBase":  {"piscofins/vBCPisCofins", "vBCPisCofins"},
	"pisRate":        {"piscofins/pAliqPis", "pAliqPis"},
	"cofinsRate":     {"piscofins/pAliqCofins", "pAliqCofins"},
	"pisValue":       {"piscofins/vPis", "vPis"},
	"cofinsValue":    {"piscofins/vCofins", "vCofins"},
	"pcRetention":    {"piscofins/tpRetPisCofins", "tpRetPisCofins"},
	"irrf":           {"tribFed/vRetIRRF", "vRetIRRF"},
	"csll":           {"tribFed/vRetCSLL", "vRetCSLL"},
	"inss":           {"tribFed/vRetINSS", "vRetINSS"},
	"cp":             {"tribFed/vRetCP", "vRetCP"},
	"otherRet":       {"vOutrasRet", "OutrasRetencoes"},
	"netValue":       {"valores/vLiq", "vLiq", "ValorLiquidoNfse"},
}

var issRetentionDesc = map[string]string{
	"1": "Não Retido",
	"2": "Retido pelo Tomador",
	"3": "Retido pelo Intermediário",
}

var pisCofinsRetentionDesc = map[string]string{
	"1": "Retido",
	"2": "Não Retido",
}

var pisCofinsCSTDesc = map[string]string{
	"00": "Nenhum",
	"01": "Tributável – Alíquota Básica",
	"02": "Tributável – Alíquota Diferenciada",
	"03": "Tributável – Alíq. Unid. Medida Produto",
	"04": "Tributável Monofásica – Revenda Alíq. Zero",
	"05": "Tributável por Substituição Tributária",
	"06": "Tributável a Alíquota Zero",
	"07": "Isenta da Contribuição",
	"08": "Sem Incidência da Contribuição",
	"09": "Com Suspensão da Contribuição",
}

// keyPrefix is stripped from the infNFSe Id attribute.
const keyPrefix = "NFS"
