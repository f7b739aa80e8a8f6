package vocabulary

// DefaultName labels the built-in tables.
const DefaultName = "v1"

// Default returns the built-in vocabulary set.
func Default() *Set {
	s, err := NewSet(DefaultName, defaultCategories, defaultTechnologies, defaultAwards)
	if err != nil {
		panic("vocabulary: invalid built-in tables: " + err.Error())
	}
	return s
}

var (
	defaultCategories = []string{
		"Early Access", "Sports", "Indie", "Game Development", "Utilities", "Massively Multiplayer",
		"Video Production", "Racing", "Audio Production", "Sexual Content", "Gore", "Action",
		"Free to Play", "Adventure", "RPG", "Design & Illustration", "Unknown Genre", "Strategy",
		"Web Publishing", "Violent", "Nudity", "Education", "Simulation", "Casual",
	}

	defaultTechnologies = []string{
		"Source2", "Construct", "RPGMaker", "Love2D", "RealVirtuality", "HashLink", "RenPy",
		"C4_Engine", "Phyre", "REDengine", "Flexi", "OGRE", "Unigine", "Torque", "Lime_OR_OpenFL",
		"idTech3", "Wintermute", "idTech4", "Danmakufu", "Amazon_Lumberyard", "BlenderGameEngine",
		"AdventureGameStudio", "Marmalade", "idTech6", "AppGameKit", "X-Ray", "Source", "Asura",
		"ApexEngine", "Phaser", "PlayFirstPlayground", "Kex", "Diesel", "TyranoBuilder", "CryEngine",
		"WolfRPGEditor", "XNA", "UbisoftAnvil", "idTech2", "RAGE", "Godot", "Prism3D", "Defold",
		"Infinity", "Aurora", "TelltaleTool", "Virtools", "idTech2_5", "idTech7", "VisionaireStudio",
		"KiriKiri", "Glacier", "Clausewitz", "UbiArtFramework", "HaemimontSol", "Frostbite", "Build",
		"Vision", "FNA", "GoldSource", "NScripter", "ChromeEngine", "GameGuru", "Liquid",
		"4A_Engine", "Snowdrop", "Cocos", "Unity", "Bitsquid", "VisualNovelMaker", "Adobe_AIR",
		"idTech5", "RE_Engine", "MonoGame", "Unreal", "GameMaker", "Solar2D", "ClickTeamFusion",
		"Pico8",
	}

	defaultAwards = []string{
		"Best Game Direction", "Best Independent Game", "Best Art Direction",
		"Best Multiplayer Game", "Games for Impact", "Best Narrative", "Best Audio Design",
		"Game of the Year", "Best Score/Music", "Best Performance",
	}
)
