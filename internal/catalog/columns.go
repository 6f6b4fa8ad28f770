package catalog

// Column describes one column of the measurement report.
type Column struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// StandardColumns are always present in generated reports.
var StandardColumns = []Column{
	{ID: "unidade", Name: "Unidade", Description: "Nome do shopping", Required: true},
	{ID: "categoria", Name: "Categoria", Description: "Tipo de serviço (Segurança, Limpeza, etc)", Required: true},
	{ID: "fornecedor", Name: "Fornecedor", Description: "Nome da empresa prestadora", Required: true},
	{ID: "hc_planilha", Name: "HC Planilha", Description: "Headcount conforme planilha", Required: true},
	{ID: "dias_faltas", Name: "Dias Faltas", Description: "Quantidade de dias com faltas", Required: true},
	{ID: "horas_atrasos", Name: "Horas Atrasos", Description: "Total de horas de atrasos", Required: true},
	{ID: "valor_planilha", Name: "Valor Planilha", Description: "Valor original da planilha", Required: true},
	{ID: "desc_falta", Name: "Desc. Falta Validado Atlas", Description: "Desconto por faltas validado", Required: true},
	{ID: "desc_atraso", Name: "Desc. Atraso Validado Atlas", Description: "Desconto por atrasos validado", Required: true},
	{ID: "desc_sla", Name: "Desconto SLA Mês", Description: "Desconto de SLA mensal", Required: true},
	{ID: "valor_mensal_final", Name: "Valor Mensal Final", Description: "Valor final após descontos", Required: true},
	{ID: "mes_ref", Name: "Mês de referência para faturamento", Description: "Competência da medição", Required: true},
	{ID: "mes_emissao", Name: "Mês de emissão da NF", Description: "Mês de emissão da nota fiscal", Required: true},
}

// ExtraColumns can be enabled per scope as needed.
var ExtraColumns = []Column{
	{ID: "desc_sla_retroativo", Name: "Desconto SLA Retroativo", Description: "Desconto SLA de meses anteriores"},
	{ID: "desc_equipamentos", Name: "Desconto Equipamentos", Description: "Desconto de equipamentos"},
	{ID: "premio_assiduidade", Name: "Prêmio Assiduidade", Description: "Bônus por assiduidade"},
	{ID: "outros_descontos", Name: "Outros descontos", Description: "Outros descontos aplicados"},
	{ID: "taxa_prorrogacao", Name: "Taxa de prorrogação do prazo pagamento", Description: "Taxa aplicada na prorrogação"},
	{ID: "valor_prorrogacao", Name: "Valor mensal com prorrogação do prazo pagamento", Description: "Valor com prorrogação incluída"},
	{ID: "retroativo_dissidio", Name: "Retroativo de dissídio", Description: "Valor retroativo de dissídio"},
	{ID: "parcela", Name: "Parcela (x/x)", Description: "Número da parcela"},
	{ID: "valor_extras", Name: "Valor extras validado Atlas", Description: "Valores extras validados"},
}

// AllColumns returns standard followed by extra columns.
func AllColumns() []Column {
	cols := make([]Column, 0, len(StandardColumns)+len(ExtraColumns))
	cols = append(cols, StandardColumns...)
	cols = append(cols, ExtraColumns...)
	return cols
}

// StandardColumnIDs returns the ids of the always-visible columns.
func StandardColumnIDs() []string {
	ids := make([]string, 0, len(StandardColumns))
	for _, c := range StandardColumns {
		ids = append(ids, c.ID)
	}
	return ids
}
