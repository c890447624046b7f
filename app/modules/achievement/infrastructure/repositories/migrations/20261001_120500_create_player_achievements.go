package achievementmigrations

func init() {
	Migrations.MustRegister(CreatePlayerAchievementsTable, DropPlayerAchievementsTable)
}
