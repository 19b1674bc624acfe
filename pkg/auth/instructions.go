package auth

import (
	"fmt"
	"strings"
)

// ShowAPIKeyGuide displays step-by-step instructions for getting a Steam Web API key
func ShowAPIKeyGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 STEAM WEB API KEY GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("The public review feed works without a key, but a key is sent along when")
	fmt.Println("configured and keeps long walks from being throttled as anonymous traffic.")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Sign in to Steam")
	fmt.Println("   - Go to https://steamcommunity.com/dev/apikey")
	fmt.Println("   - Log in with a Steam account that has made a purchase")
	fmt.Println()

	fmt.Println("📝 STEP 2: Register a key")
	fmt.Println("   - Enter any domain name you control (localhost works for personal use)")
	fmt.Println("   - Accept the Steam Web API Terms of Use")
	fmt.Println()

	fmt.Println("🔑 STEP 3: Copy the key")
	fmt.Println("   ┌──────────┬───────────────────────────────────────────┐")
	fmt.Println("   │ Key      │ 32 hexadecimal characters                 │")
	fmt.Println("   │          │ Example: 0123456789ABCDEF0123456789ABCDEF │")
	fmt.Println("   └──────────┴───────────────────────────────────────────┘")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Paste it at the prompt of `steamreviews auth login`")
	fmt.Printf("   • Or export it as %s for one-off runs\n", APIKeyEnv)
	fmt.Println("   • Revoke and re-register the key on the same page if it leaks")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • The key is tied to your Steam account")
	fmt.Println("   • NEVER commit it to a repository")
	fmt.Println("   • This tool keeps it in the system keychain or an encrypted file")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickGuide shows a condensed version for experienced users
func ShowQuickGuide() {
	fmt.Println("\n🔑 Quick Guide: https://steamcommunity.com/dev/apikey → Register → copy the 32-character key")
	fmt.Println("   Type 'help' for detailed instructions")
}
