package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// loadMailSettings lee email_settings.json (smtp_server, smtp_port, accounts, department_defaults).
// Si el archivo no existe se conserva lo que venga por variables de entorno.
//
// Viper normaliza las claves a minúsculas: las claves de cuenta se comparan sin distinguir mayúsculas.
func loadMailSettings(path string, out *SMTPConfig) error {
	v, ok, err := readJSON(path)
	if err != nil || !ok {
		return err
	}

	if s := strings.TrimSpace(v.GetString("smtp_server")); s != "" {
		out.Server = s
	}
	if p := v.GetInt("smtp_port"); p > 0 {
		out.Port = p
	}

	accounts := make([]MailAccount, 0)
	for key, raw := range v.GetStringMap("accounts") {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		sender := strings.TrimSpace(fmt.Sprint(valueOr(entry["sender"], "")))
		accountKey := strings.TrimSpace(key)
		if accountKey == "" || sender == "" {
			continue
		}
		display := strings.TrimSpace(fmt.Sprint(valueOr(entry["display_name"], "")))
		if display == "" {
			display = accountKey
		}
		depts := normalizeDepartments(entry["department"])
		if len(depts) == 0 {
			depts = normalizeDepartments(entry["departments"])
		}
		accounts = append(accounts, MailAccount{
			Key:         accountKey,
			Sender:      sender,
			DisplayName: display,
			Departments: depts,
		})
	}
	// El orden de un map no es estable; "primera cuenta" = orden alfabético de clave.
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Key < accounts[j].Key })

	defaults := map[string]string{}
	for dept, accountKey := range v.GetStringMapString("department_defaults") {
		dept = strings.TrimSpace(dept)
		accountKey = strings.TrimSpace(accountKey)
		if dept == "" || accountKey == "" {
			continue
		}
		for i := range accounts {
			if !strings.EqualFold(accounts[i].Key, accountKey) {
				continue
			}
			defaults[dept] = accounts[i].Key
			if !contains(accounts[i].Departments, dept) {
				accounts[i].Departments = append(accounts[i].Departments, dept)
			}
		}
	}

	if len(accounts) > 0 {
		out.Accounts = accounts
		out.DepartmentDefaults = defaults
	}
	return nil
}

// loadCompanyProfile lee company_profile.json; los campos ausentes mantienen el valor por defecto.
func loadCompanyProfile(path string, out *CompanyProfile) error {
	v, ok, err := readJSON(path)
	if err != nil || !ok {
		return err
	}
	if s := v.GetString("company_name"); s != "" {
		out.Name = s
	}
	if s := v.GetString("address"); s != "" {
		out.Address = s
	}
	if s := v.GetString("url"); s != "" {
		out.URL = s
	}
	if s := v.GetString("default_phone"); s != "" {
		out.DefaultPhone = s
	}
	phones := v.GetStringMapString("department_phones")
	if len(phones) > 0 {
		out.DepartmentPhones = phones
	}
	return nil
}

func readJSON(path string) (*viper.Viper, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("config: %s: %w", path, err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, false, fmt.Errorf("config: leer %s: %w", path, err)
	}
	return v, true, nil
}

func normalizeDepartments(raw interface{}) []string {
	var out []string
	switch t := raw.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []interface{}:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" && !contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out
}

func valueOr(v interface{}, def interface{}) interface{} {
	if v == nil {
		return def
	}
	return v
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
