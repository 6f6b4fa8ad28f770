// Package catalog holds the static reference data for the unit hierarchy:
// regions, their units and the billing recipient address of each unit.
// The data is immutable at runtime; accessors never fail, unknown lookups
// return empty results.
package catalog

// Unit is a billable location with a single billing recipient address.
type Unit struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Region string `json:"region"`
}

// Region is an administrative grouping of units.
type Region struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Units []Unit `json:"units"`
}

var regions = []Region{
	{
		Code: "RJ",
		Name: "Regional RJ",
		Units: []Unit{
			{ID: "rj-bangu", Name: "Bangu Shopping", Email: "bangu@exemplo.com", Region: "RJ"},
			{ID: "rj-carioca", Name: "Carioca Shopping", Email: "carioca@exemplo.com", Region: "RJ"},
			{ID: "rj-caxias", Name: "Caxias Shopping", Email: "caxias@exemplo.com", Region: "RJ"},
			{ID: "rj-independencia", Name: "Independência Shopping", Email: "independencia@exemplo.com", Region: "RJ"},
			{ID: "rj-norte", Name: "Norte Shopping", Email: "norte@exemplo.com", Region: "RJ"},
			{ID: "rj-passeio", Name: "Passeio Shopping", Email: "passeio@exemplo.com", Region: "RJ"},
			{ID: "rj-recreio", Name: "Recreio Shopping", Email: "recreio@exemplo.com", Region: "RJ"},
			{ID: "rj-riodesign", Name: "Rio Design Leblon", Email: "riodesign@exemplo.com", Region: "RJ"},
			{ID: "rj-granderio", Name: "Shopping Grande Rio", Email: "granderio@exemplo.com", Region: "RJ"},
			{ID: "rj-leblon", Name: "Shopping Leblon", Email: "leblon@exemplo.com", Region: "RJ"},
			{ID: "rj-vilavelha", Name: "Shopping Vila Velha", Email: "vilavelha@exemplo.com", Region: "RJ"},
		},
	},
	{
		Code: "SP1",
		Name: "Regional SP1",
		Units: []Unit{
			{ID: "sp1-londrina", Name: "Catuaí Shopping Londrina", Email: "londrina@exemplo.com", Region: "SP1"},
			{ID: "sp1-maringa", Name: "Catuaí Shopping Maringá", Email: "maringa@exemplo.com", Region: "SP1"},
			{ID: "sp1-saobernardo", Name: "São Bernardo Plaza Shopping", Email: "saobernardo@exemplo.com", Region: "SP1"},
			{ID: "sp1-campogrande", Name: "Shopping Campo Grande", Email: "campogrande@exemplo.com", Region: "SP1"},
			{ID: "sp1-curitiba", Name: "Shopping Curitiba", Email: "curitiba@exemplo.com", Region: "SP1"},
			{ID: "sp1-goiania", Name: "Shopping Goiânia", Email: "goiania@exemplo.com", Region: "SP1"},
			{ID: "sp1-metropole", Name: "Shopping Metrópole", Email: "metropole@exemplo.com", Region: "SP1"},
			{ID: "sp1-passeioaguas", Name: "Shopping Passeio das Águas", Email: "passeioaguas@exemplo.com", Region: "SP1"},
			{ID: "sp1-tambore", Name: "Shopping Tamboré", Email: "tambore@exemplo.com", Region: "SP1"},
		},
	},
	{
		Code: "NNE",
		Name: "Regional NNE",
		Units: []Unit{
			{ID: "nne-amazonas", Name: "Amazonas Shopping", Email: "amazonas@exemplo.com", Region: "NNE"},
			{ID: "nne-boulevardbelem", Name: "Boulevard Belém", Email: "boulevardbelem@exemplo.com", Region: "NNE"},
			{ID: "nne-boulevardfeira", Name: "Boulevard Feira de Santana", Email: "boulevardfeira@exemplo.com", Region: "NNE"},
			{ID: "nne-cariri", Name: "Cariri Shopping", Email: "cariri@exemplo.com", Region: "NNE"},
			{ID: "nne-manauara", Name: "Manauara Shopping", Email: "manauara@exemplo.com", Region: "NNE"},
			{ID: "nne-parquebelem", Name: "Parque Shopping Belém", Email: "parquebelem@exemplo.com", Region: "NNE"},
			{ID: "nne-bahia", Name: "Shopping da Bahia", Email: "bahia@exemplo.com", Region: "NNE"},
			{ID: "nne-parangaba", Name: "Shopping Parangaba", Email: "parangaba@exemplo.com", Region: "NNE"},
			{ID: "nne-plazasul", Name: "Shopping Plaza Sul", Email: "plazasul@exemplo.com", Region: "NNE"},
			{ID: "nne-rioanil", Name: "Shopping Rio Anil", Email: "rioanil@exemplo.com", Region: "NNE"},
			{ID: "nne-taboao", Name: "Shopping Taboão", Email: "taboao@exemplo.com", Region: "NNE"},
		},
	},
	{
		Code: "SP2",
		Name: "Regional SP2",
		Units: []Unit{
			{ID: "sp2-boulevardbauru", Name: "Boulevard Bauru", Email: "boulevardbauru@exemplo.com", Region: "SP2"},
			{ID: "sp2-franca", Name: "Franca Shopping", Email: "franca@exemplo.com", Region: "SP2"},
			{ID: "sp2-pracanovaaracatuba", Name: "Praça Nova Araçatuba", Email: "pracanovaaracatuba@exemplo.com", Region: "SP2"},
			{ID: "sp2-pracanovasantamaria", Name: "Praça Nova Santa Maria", Email: "pracanovasantamaria@exemplo.com", Region: "SP2"},
			{ID: "sp2-campolimpo", Name: "Shopping Campo Limpo", Email: "campolimpo@exemplo.com", Region: "SP2"},
			{ID: "sp2-dompedro", Name: "Shopping Parque Dom Pedro", Email: "dompedro@exemplo.com", Region: "SP2"},
			{ID: "sp2-piracicaba", Name: "Shopping Piracicaba", Email: "piracicaba@exemplo.com", Region: "SP2"},
			{ID: "sp2-villalobos", Name: "Shopping Villa Lobos", Email: "villalobos@exemplo.com", Region: "SP2"},
			{ID: "sp2-villagiocaxias", Name: "Shopping Villagio Caxias", Email: "villagiocaxias@exemplo.com", Region: "SP2"},
		},
	},
	{
		Code: "SP3",
		Name: "Regional SP3",
		Units: []Unit{
			{ID: "sp3-boulevardbh", Name: "Boulevard BH", Email: "boulevardbh@exemplo.com", Region: "SP3"},
			{ID: "sp3-centeruberlandia", Name: "Center Shopping Uberlândia", Email: "centeruberlandia@exemplo.com", Region: "SP3"},
			{ID: "sp3-mooca", Name: "Mooca Plaza Shopping", Email: "mooca@exemplo.com", Region: "SP3"},
			{ID: "sp3-delrey", Name: "Shopping Del Rey", Email: "delrey@exemplo.com", Region: "SP3"},
			{ID: "sp3-estacaobh", Name: "Shopping Estação BH", Email: "estacaobh@exemplo.com", Region: "SP3"},
			{ID: "sp3-estacaocuiaba", Name: "Shopping Estação Cuiabá", Email: "estacaocuiaba@exemplo.com", Region: "SP3"},
			{ID: "sp3-metrosantacruz", Name: "Shopping Metrô Santa Cruz", Email: "metrosantacruz@exemplo.com", Region: "SP3"},
		},
	},
}

// Regions returns all regions in display order.
func Regions() []Region {
	return regions
}

// RegionCodes returns the known region codes in display order.
func RegionCodes() []string {
	codes := make([]string, 0, len(regions))
	for _, r := range regions {
		codes = append(codes, r.Code)
	}
	return codes
}

// All returns every unit across all regions.
func All() []Unit {
	var units []Unit
	for _, r := range regions {
		units = append(units, r.Units...)
	}
	return units
}

// ByRegion returns the units of a region, or an empty slice for an
// unknown code.
func ByRegion(code string) []Unit {
	for _, r := range regions {
		if r.Code == code {
			return r.Units
		}
	}
	return nil
}

// ByID returns the unit with the given id, or nil if it does not exist.
func ByID(id string) *Unit {
	for _, r := range regions {
		for i := range r.Units {
			if r.Units[i].ID == id {
				return &r.Units[i]
			}
		}
	}
	return nil
}

// RegionName returns the display name for a region code, falling back to
// the code itself.
func RegionName(code string) string {
	for _, r := range regions {
		if r.Code == code {
			return r.Name
		}
	}
	return code
}

// TotalUnits returns the number of units in the catalog.
func TotalUnits() int {
	n := 0
	for _, r := range regions {
		n += len(r.Units)
	}
	return n
}
