package clinic

import (
	"encoding/json"
	"fmt"
	"os"
)

// Doctor describes one member of the clinic roster.
type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

// Catalog carries the per-clinic reference data that the validators and the
// availability layer are parameterised with: the recognised appointment
// types, the doctor roster, and the scheduling settings.
type Catalog struct {
	ClinicName       string   `json:"clinic_name"`
	AppointmentTypes []string `json:"appointment_types"`
	Doctors          []Doctor `json:"doctors"`
}

// Default returns the built-in Hong Kong clinic catalog.
func Default() *Catalog {
	return &Catalog{
		ClinicName: "診所預約服務",
		AppointmentTypes: []string{
			"內科",
			"外科",
			"兒科",
			"婦科",
			"骨科",
			"皮膚科",
			"眼科",
			"耳鼻喉科",
			"牙科",
			"心臟科",
			"腸胃科",
			"泌尿科",
			"精神科",
			"普通科",
			"物理治療",
			"身體檢查",
			"疫苗注射",
			"覆診",
		},
		Doctors: []Doctor{
			{ID: "dr_wang", Name: "Dr. Wang", Specialty: "內科"},
			{ID: "dr_li", Name: "Dr. Li", Specialty: "外科"},
			{ID: "dr_zhang", Name: "Dr. Zhang", Specialty: "兒科"},
		},
	}
}

// Load reads a catalog from a JSON file, falling back to the defaults for
// any section the file leaves empty. An empty path returns the defaults.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("clinic: failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("clinic: failed to parse catalog file: %w", err)
	}

	defaults := Default()
	if catalog.ClinicName == "" {
		catalog.ClinicName = defaults.ClinicName
	}
	if len(catalog.AppointmentTypes) == 0 {
		catalog.AppointmentTypes = defaults.AppointmentTypes
	}
	if len(catalog.Doctors) == 0 {
		catalog.Doctors = defaults.Doctors
	}
	return &catalog, nil
}
