// Package patient defines the domain types shared by the store, the data
// access layer and the application context.
//
// Patients carry two kinds of fields:
//   - identity fields (first_name, last_name, date_of_birth, gender) which are
//     set at registration and never change afterwards
//   - contact and vitals fields (phone, email, address, weight, height,
//     blood_group, blood_pressure) which an Update may replace
//
// Input validation is expressed as a CUE schema (schema.cue) and evaluated with
// the CUE Go API. See Validate and ValidateUpdate.
//
// All JSON and YAML tags use snake_case column names so that rows returned by
// raw queries and typed reads share one vocabulary.
package patient
