package normalize

// Field names a canonical load attribute.
type Field string

const (
	FieldID          Field = "id"
	FieldDate        Field = "date"
	FieldTicket      Field = "ticketNumber"
	FieldHauler      Field = "hauler"
	FieldVehicle     Field = "vehicleId"
	FieldTons        Field = "weightTons"
	FieldLbs         Field = "weightLbs"
	FieldMaterial    Field = "material"
	FieldCO2         Field = "co2Avoided"
	FieldHash        Field = "hash"
	FieldProjectID   Field = "projectId"
	FieldProjectName Field = "projectName"
	FieldNotes       Field = "notes"
	FieldStatus      Field = "status"
)

// defaultAliases lists, per canonical field, the raw keys tried in order:
// compact-camel first, then underscore, then legacy names. First match wins.
// New producer schemes are added by appending keys here.
var defaultAliases = map[Field][]string{
	FieldID:          {"id", "loadId", "load_id", "_id", "uuid"},
	FieldDate:        {"loadDate", "load_date", "date", "timestamp", "createdAt", "created_at"},
	FieldTicket:      {"ticketNumber", "ticket_number", "ticket", "ticketNo", "scaleTicket"},
	FieldHauler:      {"hauler", "haulerName", "hauler_name", "truckingCompany"},
	FieldVehicle:     {"vehicleId", "vehicle_id", "truckId", "truck_id", "licensePlate", "license_plate"},
	FieldTons:        {"weightTons", "weight_tons", "tons", "netTons", "net_tons"},
	FieldLbs:         {"weightLbs", "weight_lbs", "netWeight", "net_weight", "lbs", "pounds"},
	FieldMaterial:    {"materialType", "material_type", "material", "category"},
	FieldCO2:         {"co2Avoided", "co2_avoided", "co2AvoidedTons", "co2_avoided_tons", "emissionsAvoided", "emissions_avoided"},
	FieldHash:        {"hash", "integrityHash", "integrity_hash", "sha256"},
	FieldProjectID:   {"projectId", "project_id", "jobId", "job_id"},
	FieldProjectName: {"projectName", "project_name", "projectTitle", "siteName", "site_name"},
	FieldNotes:       {"notes", "note", "comments"},
	FieldStatus:      {"status", "syncStatus", "sync_status"},
}

// KnownField reports whether name is a canonical field that accepts aliases.
func KnownField(name string) bool {
	_, ok := defaultAliases[Field(name)]
	return ok
}

// Aliases returns a copy of the built-in alias list for f.
func Aliases(f Field) []string {
	return append([]string(nil), defaultAliases[f]...)
}

// mergeAliases copies the built-in table and appends extra keys after the
// built-in ones. Unknown fields and duplicate keys are ignored.
func mergeAliases(extra map[string][]string) map[Field][]string {
	merged := make(map[Field][]string, len(defaultAliases))
	for f, keys := range defaultAliases {
		merged[f] = append([]string(nil), keys...)
	}
	for name, keys := range extra {
		f := Field(name)
		existing, ok := merged[f]
		if !ok {
			continue
		}
		seen := make(map[string]bool, len(existing))
		for _, k := range existing {
			seen[k] = true
		}
		for _, k := range keys {
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			existing = append(existing, k)
		}
		merged[f] = existing
	}
	return merged
}
