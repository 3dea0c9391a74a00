package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ga4insight/internal/api"
)

func accountsListCmd(cmd *cobra.Command, args []string) error {
	fmt.Println("🏢 Listing GA4 accounts...")

	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	accounts, err := api.NewAdminClient(a.creds).ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("❌ No GA4 accounts found")
		fmt.Println("💡 Ensure the credentials have GA4 read permissions")
		return nil
	}

	fmt.Printf("📊 Found %d account(s):\n\n", len(accounts))
	for i, account := range accounts {
		fmt.Printf("🏢 %s (ID: %s)\n", account.DisplayName, account.ID)
		fmt.Printf("   🌍 Region: %s\n", account.RegionCode)
		fmt.Printf("   📅 Created: %s\n", account.CreateTime.Format("2006-01-02"))

		if i < len(accounts)-1 {
			fmt.Println()
		}
	}

	fmt.Println("\n💡 Use 'ga4insight properties list --account <id>' to see properties")
	return nil
}

func propertiesListCmd(cmd *cobra.Command, args []string) error {
	accountID, _ := cmd.Flags().GetString("account")
	accountID = strings.TrimPrefix(accountID, "accounts/")
	fmt.Printf("🏠 Listing GA4 properties for account %s...\n", accountID)

	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	properties, err := api.NewAdminClient(a.creds).ListProperties(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to list properties: %w", err)
	}

	if len(properties) == 0 {
		fmt.Printf("❌ No properties found for account %s\n", accountID)
		fmt.Println("💡 Ensure the account ID is correct and accessible")
		return nil
	}

	fmt.Printf("🏠 Found %d propert(y/ies):\n\n", len(properties))
	for i, property := range properties {
		printProperty(property)
		if i < len(properties)-1 {
			fmt.Println()
		}
	}

	fmt.Println("\n💡 Use 'ga4insight sites add <name> <property-id>' to add one to the dashboard")
	return nil
}

func propertiesShowCmd(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := commandContext(30 * time.Second)
	defer cancel()

	property, err := api.NewAdminClient(a.creds).GetProperty(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get property: %w", err)
	}
	printProperty(*property)
	return nil
}

func printProperty(property api.Property) {
	fmt.Printf("📊 %s (ID: %s)\n", property.DisplayName, property.ID)
	fmt.Printf("   💰 Currency: %s\n", property.CurrencyCode)
	fmt.Printf("   🌐 Timezone: %s\n", property.TimeZone)
	fmt.Printf("   📈 Service Level: %s\n", property.ServiceLevel)
	fmt.Printf("   📅 Created: %s\n", property.CreateTime.Format("2006-01-02"))
}
