package application

import (
	"fmt"
	"strings"

	"github.com/irwan019/GrkApp/internal/domain/entities"
)

const AppVersion = "1.0"

type Feature struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// Threshold is a band as printed on the about screen. The documented CO₂
// band (1000/1500 ppm) differs from the one the classifier applies, which is
// listed under Classifying.
type Threshold struct {
	Gas     string `json:"gas"`
	Unit    string `json:"unit"`
	Normal  string `json:"normal"`
	Waspada string `json:"waspada"`
	Tinggi  string `json:"tinggi"`
}

type AboutInfo struct {
	Title       string      `json:"title"`
	Subtitle    string      `json:"subtitle"`
	Version     string      `json:"version"`
	Features    []Feature   `json:"features"`
	Thresholds  []Threshold `json:"thresholds"`
	Source      string      `json:"threshold_source"`
	Disclaimer  []string    `json:"disclaimer"`
	Locations   []string    `json:"locations"`
	DataSource  string      `json:"data_source"`
	Classifying []Threshold `json:"classification"`
}

func About(catalog *entities.Catalog) AboutInfo {
	names := make([]string, 0, 6)
	for _, l := range catalog.All() {
		names = append(names, l.Name)
	}

	return AboutInfo{
		Title:    "Aplikasi Pemantauan Gas Rumah Kaca Jakarta",
		Subtitle: "CO₂ & CH₄ Berbasis Open Data (Realtime + Proyeksi Beberapa Jam Kedepan)",
		Version:  AppVersion,
		Features: []Feature{
			{Name: "Dashboard Realtime", Items: []string{
				"Data Hari ini",
				"KPI (key performance indicator) & status kualitas udara",
				"Update otomatis tiap 10 menit",
				"Download CSV",
			}},
			{Name: "Proyeksi Beberapa Jam Kedepan", Items: []string{
				"Forecast CO₂ & CH₄",
				"Garis berbeda dari data realtime",
				"Update otomatis tiap 10 menit",
				"Download CSV",
			}},
			{Name: "Data Periode", Items: []string{
				"Maksimal 7 hari terakhir",
				"Pilih tanggal via kalender",
				"Download CSV",
			}},
		},
		Thresholds: []Threshold{
			{Gas: "CO₂", Unit: "ppm", Normal: "< 1000", Waspada: "1000–1500", Tinggi: "> 1500"},
			{Gas: "CH₄", Unit: "ppb", Normal: "< 1950", Waspada: "1950–2000", Tinggi: "> 2000"},
		},
		Classifying: []Threshold{
			band("CO₂", "ppm", entities.CO2CautionPPM, entities.CO2HighPPM),
			band("CH₄", "ppb", entities.CH4CautionPPB, entities.CH4HighPPB),
		},
		Source: "Global Carbon Project, WMO",
		Disclaimer: []string{
			"Aplikasi ini hanya berfungsi sebagai antarmuka untuk menampilkan data publik yang disediakan oleh Open-Meteo.",
			"Semua data yang ditampilkan merupakan milik Open-Meteo.",
			"Penggunaan aplikasi ini hanya untuk tujuan pendidikan, penelitian, dan pemantauan ilmiah.",
			"Pengembang tidak bertanggung jawab atas keakuratan data Open-Meteo.",
			"Hak cipta atas data dan API tetap dimiliki oleh Open-Meteo. Pengguna harus mematuhi ketentuan penggunaan Open-Meteo.",
		},
		Locations:  names,
		DataSource: "Open-Meteo Air Quality API",
	}
}

func band(gas, unit string, caution, high float64) Threshold {
	return Threshold{
		Gas:     gas,
		Unit:    unit,
		Normal:  fmt.Sprintf("< %g", caution),
		Waspada: fmt.Sprintf("%g–%g", caution, high),
		Tinggi:  fmt.Sprintf("> %g", high),
	}
}

// String renders the about screen as plain text.
func (a AboutInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\nVersi: %s\n\nFitur Utama:\n", a.Title, a.Subtitle, a.Version)
	for i, f := range a.Features {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.Name)
		for _, item := range f.Items {
			fmt.Fprintf(&b, "   - %s\n", item)
		}
	}

	b.WriteString("\nKeterangan Ambang Batas CO₂ & CH₄ (luar ruangan):\n")
	for _, t := range a.Thresholds {
		fmt.Fprintf(&b, "- %s Normal: %s %s, Waspada: %s %s, Tinggi: %s %s\n",
			t.Gas, t.Normal, t.Unit, t.Waspada, t.Unit, t.Tinggi, t.Unit)
	}
	fmt.Fprintf(&b, "Sumber data: %s\n\nDisclaimer:\n", a.Source)
	for i, d := range a.Disclaimer {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d)
	}
	return b.String()
}
