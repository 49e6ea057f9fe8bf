package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfse/internal"
)

func writeXML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.xml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func baseContext() Context {
	return Context{Page: 2, Row: 5, Situation: internal.SituationActive, Set: internal.SetReceived}
}

const sampleNational = `<?xml version="1.0" encoding="UTF-8"?>
<NFSe xmlns="http://www.sped.fazenda.gov.br/nfse">
  <infNFSe Id="NFS35123456789012345678901234567890123456789012345">
    <nNFSe>1234</nNFSe>
    <DPS>
      <infDPS>
        <dhEmi>2024-03-15T10:22:00-03:00</dhEmi>
        <dCompet>2024-02</dCompet>
        <prest><CNPJ>11222333000181</CNPJ><xNome>Prestadora LTDA</xNome></prest>
        <toma><CNPJ>99888777000166</CNPJ><xNome>Tomadora SA</xNome></toma>
        <serv><cServ><cTribNac>010101</cTribNac><xDescServ>Consultoria</xDescServ></cServ></serv>
        <vServPrest><vServ>1000.00</vServ></vServPrest>
        <trib>
          <tribMun><tpRetISSQN>2</tpRetISSQN></tribMun>
          <tribFed>
            <piscofins>
              <CST>01</CST>
              <vBCPisCofins>1000.00</vBCPisCofins>
              <pAliqPis>0.65</pAliqPis>
              <pAliqCofins>3.00</pAliqCofins>
              <vPis>6.50</vPis>
              <vCofins>30.00</vCofins>
              <tpRetPisCofins>1</tpRetPisCofins>
            </piscofins>
            <vRetIRRF>15.00</vRetIRRF>
            <vRetCSLL>10.00</vRetCSLL>
            <vRetINSS>50</vRetINSS>
            <vRetCP>30</vRetCP>
          </tribFed>
        </trib>
      </infDPS>
    </DPS>
    <valores>
      <vBC>1000.00</vBC>
      <pAliqAplic>2.00</pAliqAplic>
      <vISSQN>150.00</vISSQN>
      <vLiq>758.50</vLiq>
    </valores>
  </infNFSe>
</NFSe>`

func TestFromFileNationalLayout(t *testing.T) {
	rec, err := FromFile(writeXML(t, sampleNational), baseContext())
	require.NoError(t, err)

	assert.Equal(t, "1234", rec["Nº NFSe"])
	assert.Equal(t, "35123456789012345678901234567890123456789012345", rec["Chave"])
	assert.Equal(t, "2", rec["Página"])
	assert.Equal(t, "5", rec["Linha"])
	assert.Equal(t, "Emitida", rec["Situação"])
	assert.Equal(t, "Recebidas", rec["Tipo"])

	// explicit dCompet wins over the emission date
	assert.Equal(t, "02/2024", rec["Competência"])

	assert.Equal(t, "11222333000181", rec["CNPJ Prestador"])
	assert.Equal(t, "Prestadora LTDA", rec["Razão Social Prestador"])
	assert.Equal(t, "1000,00", rec["Valor dos Serviços"])

	assert.Equal(t, "2", rec["tpRetISSQN"])
	assert.Equal(t, "Retido pelo Tomador", rec["Desc. Ret. ISSQN"])
	assert.Equal(t, "150,00", rec["ISS Retido"])

	assert.Equal(t, "01", rec["CST PIS/COFINS"])
	assert.Equal(t, "Tributável – Alíquota Básica", rec["Desc. CST PIS/COFINS"])
	assert.Equal(t, "Retido", rec["Desc. Ret. PIS/COFINS"])
	assert.Equal(t, "6,50", rec["PIS Retido"])
	assert.Equal(t, "30,00", rec["COFINS Retido"])

	// legacy and current social-security tags are summed
	assert.Equal(t, "80,00", rec["INSS Retido"])

	// 150 + 6.5 + 30 + 15 + 10 + 80 = 291.50
	assert.Equal(t, "291,50", rec["Total Retenções"])
	assert.Equal(t, "758,50", rec["Valor Líquido"])
}

const sampleLegacy = `<?xml version="1.0" encoding="UTF-8"?>
<CompNfse xmlns:ns2="http://www.abrasf.org.br/nfse.xsd">
  <ns2:Nfse>
    <ns2:Numero>77</ns2:Numero>
    <ns2:DataEmissao>15/03/2024</ns2:DataEmissao>
    <ns2:tomador><ns2:CPF>12345678901</ns2:CPF><ns2:xNome>Fulano</ns2:xNome></ns2:tomador>
    <ns2:Discriminacao>Aula particular</ns2:Discriminacao>
    <ns2:vServ>200.00</ns2:vServ>
    <ns2:vISS>4.00</ns2:vISS>
    <ns2:ValorLiquidoNfse>200.00</ns2:ValorLiquidoNfse>
  </ns2:Nfse>
</CompNfse>`

func TestFromFileLegacyLayoutDefaults(t *testing.T) {
	rec, err := FromFile(writeXML(t, sampleLegacy), baseContext())
	require.NoError(t, err)

	// namespace prefixes must not affect lookup
	assert.Equal(t, "77", rec["Nº NFSe"])
	assert.Equal(t, "Aula particular", rec["Descrição Serviço"])
	assert.Equal(t, "12345678901", rec["CPF Tomador"])

	// competence falls back to the Brazilian-format emission date
	assert.Equal(t, "03/2024", rec["Competência"])

	// retention codes default to "not retained"
	assert.Equal(t, "1", rec["tpRetISSQN"])
	assert.Equal(t, "Não Retido", rec["Desc. Ret. ISSQN"])
	assert.Equal(t, "0", rec["ISS Retido"])
	assert.Equal(t, "2", rec["tpRetPisCofins"])
	assert.Equal(t, "Não Retido", rec["Desc. Ret. PIS/COFINS"])
	assert.Equal(t, "0", rec["PIS Retido"])

	// nothing retained anywhere
	assert.Equal(t, "0", rec["Total Retenções"])

	// absent identifiers collapse to "0"
	assert.Equal(t, "0", rec["Chave"])
	assert.Equal(t, "0", rec["CNPJ Prestador"])
	assert.Equal(t, "0", rec["CST PIS/COFINS"])
	assert.Equal(t, "0", rec["Desc. CST PIS/COFINS"])
}

func TestFromFileRetentionGating(t *testing.T) {
	// tpRetPisCofins=2 means the PIS/COFINS values exist but are not
	// retained and must not leak into the retention columns or total.
	body := `<NFSe><infNFSe Id="NFS123">
	  <vISSQN>100.00</vISSQN><tpRetISSQN>3</tpRetISSQN>
	  <vPis>5.00</vPis><vCofins>20.00</vCofins><tpRetPisCofins>2</tpRetPisCofins>
	</infNFSe></NFSe>`
	rec, err := FromFile(writeXML(t, body), baseContext())
	require.NoError(t, err)

	assert.Equal(t, "Retido pelo Intermediário", rec["Desc. Ret. ISSQN"])
	assert.Equal(t, "100,00", rec["ISS Retido"])
	assert.Equal(t, "0", rec["PIS Retido"])
	assert.Equal(t, "0", rec["COFINS Retido"])
	assert.Equal(t, "100,00", rec["Total Retenções"])
}

func TestFromFileUnknownRetentionCode(t *testing.T) {
	body := `<NFSe><infNFSe Id="NFS1"><vISSQN>50.00</vISSQN><tpRetISSQN>9</tpRetISSQN></infNFSe></NFSe>`
	rec, err := FromFile(writeXML(t, body), baseContext())
	require.NoError(t, err)

	assert.Equal(t, "9", rec["tpRetISSQN"])
	assert.Equal(t, "Não Retido", rec["Desc. Ret. ISSQN"])
	assert.Equal(t, "0", rec["ISS Retido"])
}

func TestFromFileMalformed(t *testing.T) {
	_, err := FromFile(writeXML(t, "<NFSe><unclosed>"), baseContext())
	assert.Error(t, err)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.xml"), baseContext())
	assert.Error(t, err)
}

func TestFromFileColumnsCovered(t *testing.T) {
	rec, err := FromFile(writeXML(t, sampleNational), baseContext())
	require.NoError(t, err)
	for _, col := range internal.ReportColumns {
		_, ok := rec[col]
		assert.True(t, ok, "missing column %s", col)
	}
}
